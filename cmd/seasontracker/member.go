package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/mantonx/seasontracker/internal/auth"
	"github.com/mantonx/seasontracker/internal/database"
	"github.com/mantonx/seasontracker/internal/modules/membermodule"
	"github.com/urfave/cli/v3"
	"gorm.io/gorm"
)

func emailFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "email",
		Aliases:  []string{"e"},
		Usage:    "Member email address",
		Required: true,
	}
}

func memberCommand() *cli.Command {
	return &cli.Command{
		Name:  "member",
		Usage: "Manage members and their roles",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create a member and print its bearer token",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Display name", Required: true},
					emailFlag(),
					&cli.StringSliceFlag{Name: "role", Aliases: []string{"r"}, Usage: "Role to grant (repeatable)"},
				},
				Action: memberAction(createMember),
			},
			{
				Name:   "grant",
				Usage:  "Grant a role to a member",
				Flags:  []cli.Flag{emailFlag(), roleFlag()},
				Action: memberAction(grantRole),
			},
			{
				Name:   "revoke",
				Usage:  "Revoke a role from a member",
				Flags:  []cli.Flag{emailFlag(), roleFlag()},
				Action: memberAction(revokeRole),
			},
			{
				Name:   "token",
				Usage:  "Issue a new bearer token, invalidating the old one",
				Flags:  []cli.Flag{emailFlag()},
				Action: memberAction(rotateToken),
			},
			{
				Name:  "list",
				Usage: "List members with their roles",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Print JSON instead of a table"},
				},
				Action: memberAction(listMembers),
			},
		},
	}
}

func roleFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "role",
		Aliases: []string{"r"},
		Usage:   "Role name",
		Value:   auth.RoleCanManageTvShows,
	}
}

type memberFunc func(ctx context.Context, cmd *cli.Command, repo *membermodule.MemberRepository) error

func memberAction(fn memberFunc) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		return withDatabase(cmd, func(db *gorm.DB) error {
			return fn(ctx, cmd, membermodule.NewMemberRepository(db))
		})
	}
}

func lookup(ctx context.Context, cmd *cli.Command, repo *membermodule.MemberRepository) (*database.Member, error) {
	email := cmd.String("email")
	member, err := repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("member %s: %w", email, err)
	}
	return member, nil
}

func createMember(ctx context.Context, cmd *cli.Command, repo *membermodule.MemberRepository) error {
	token, hash, err := auth.NewToken()
	if err != nil {
		return err
	}

	member := &database.Member{
		Name:      cmd.String("name"),
		Email:     cmd.String("email"),
		TokenHash: hash,
	}
	if err := repo.Create(ctx, member, cmd.StringSlice("role")...); err != nil {
		return err
	}

	out := cmd.Root().Writer
	fmt.Fprintf(out, "created member %d (%s)\n", member.ID, member.Email)
	fmt.Fprintf(out, "token: %s\n", token)
	fmt.Fprintln(out, "store this token now; it cannot be shown again")
	return nil
}

func grantRole(ctx context.Context, cmd *cli.Command, repo *membermodule.MemberRepository) error {
	member, err := lookup(ctx, cmd, repo)
	if err != nil {
		return err
	}
	role := cmd.String("role")
	if err := repo.GrantRole(ctx, member.ID, role); err != nil {
		return err
	}
	fmt.Fprintf(cmd.Root().Writer, "granted %s to %s\n", role, member.Email)
	return nil
}

func revokeRole(ctx context.Context, cmd *cli.Command, repo *membermodule.MemberRepository) error {
	member, err := lookup(ctx, cmd, repo)
	if err != nil {
		return err
	}
	role := cmd.String("role")
	if err := repo.RevokeRole(ctx, member.ID, role); err != nil {
		return err
	}
	fmt.Fprintf(cmd.Root().Writer, "revoked %s from %s\n", role, member.Email)
	return nil
}

func rotateToken(ctx context.Context, cmd *cli.Command, repo *membermodule.MemberRepository) error {
	member, err := lookup(ctx, cmd, repo)
	if err != nil {
		return err
	}
	token, hash, err := auth.NewToken()
	if err != nil {
		return err
	}
	if err := repo.RotateToken(ctx, member.ID, hash); err != nil {
		return err
	}
	fmt.Fprintf(cmd.Root().Writer, "token: %s\n", token)
	return nil
}

func listMembers(ctx context.Context, cmd *cli.Command, repo *membermodule.MemberRepository) error {
	members, err := repo.List(ctx)
	if err != nil {
		return err
	}

	out := cmd.Root().Writer
	if cmd.Bool("json") {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(members)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tROLES")
	for _, m := range members {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", m.ID, m.Name, m.Email, strings.Join(m.Roles, ","))
	}
	return tw.Flush()
}
