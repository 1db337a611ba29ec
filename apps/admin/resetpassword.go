package main

import (
	"context"
	"time"

	"github.com/mwalimu/sifa/core/user"
)

func (cli *commandLine) resetPassword(teacherID, pwd string) error {
	ctx := context.Background()
	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{TeacherID: user.CleanTeacherID(teacherID)})
	if err != nil {
		return err
	}
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	usr.UpdatedAt = time.Now().UTC()
	if _, err := cli.usrRepo.UpdateUser(ctx, usr); err != nil {
		return err
	}
	return nil
}
