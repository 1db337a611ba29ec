package main

import (
	"context"
	"time"

	"github.com/mwalimu/sifa/core"
	"github.com/mwalimu/sifa/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(teacherID, name, pwd string, isAdmin bool) error {
	var usr user.User
	var err error
	ctx := context.Background()
	teacherID = user.CleanTeacherID(teacherID)
	name = core.CleanString(name)
	now := time.Now().UTC()

	if usr, err = cli.usrRepo.GetUser(ctx, user.GetFilter{TeacherID: teacherID}); err != nil {
		if err != user.ErrNotFound {
			return err
		}
		usr = user.User{
			TeacherID: teacherID,
			Role:      user.RoleTeacher,
			CreatedAt: now,
		}
	}
	usr.Name = name
	if isAdmin {
		usr.Role = user.RoleAdmin
	}
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	usr.UpdatedAt = now
	if _, err := cli.usrRepo.UpdateOrCreateUser(ctx, usr); err != nil {
		return err
	}
	return nil
}
