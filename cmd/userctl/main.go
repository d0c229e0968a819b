package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/wichananm65/user-service/internal/client"
	"github.com/wichananm65/user-service/internal/config"
	"github.com/wichananm65/user-service/internal/user"
)

const usage = `usage: userctl [-url URL] [-token TOKEN] [-timeout D] <command> [args]

commands:
  list   [-gender MALE|FEMALE]
  get    <userUid>
  insert [-id UUID] -first NAME -last NAME -gender G -age N -email ADDR
  update -id UUID -first NAME -last NAME -gender G -age N -email ADDR
  delete <userUid>
`

var errUsage = errors.New("invalid usage")

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if err := run(context.Background(), os.Args[1:], cfg.Client, os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, defaults config.Client, out io.Writer) error {
	fs := flag.NewFlagSet("userctl", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	baseURL := fs.String("url", defaults.BaseURL, "users resource URL")
	token := fs.String("token", defaults.Token, "bearer token for mutating commands")
	timeout := fs.Duration("timeout", defaults.Timeout, "request timeout")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() == 0 {
		return errUsage
	}

	c := client.New(*baseURL, client.WithToken(*token), client.WithTimeout(*timeout))
	cmd, rest := fs.Arg(0), fs.Args()[1:]

	switch cmd {
	case "list":
		sub := flag.NewFlagSet("list", flag.ContinueOnError)
		sub.SetOutput(io.Discard)
		gender := sub.String("gender", "", "only users of this gender")
		if err := sub.Parse(rest); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		users, err := c.FetchUsers(ctx, *gender)
		if err != nil {
			return err
		}
		return printJSON(out, users)

	case "get", "delete":
		if len(rest) != 1 {
			return errUsage
		}
		id, err := uuid.Parse(rest[0])
		if err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		if cmd == "delete" {
			if err := c.DeleteUser(ctx, id); err != nil {
				return err
			}
			_, err = fmt.Fprintf(out, "deleted %s\n", id)
			return err
		}
		u, err := c.FetchUser(ctx, id)
		if err != nil {
			return err
		}
		return printJSON(out, u)

	case "insert", "update":
		u, err := parseUserFlags(cmd, rest)
		if err != nil {
			return err
		}
		if cmd == "update" {
			if u.UID == uuid.Nil {
				return fmt.Errorf("%w: update requires -id", errUsage)
			}
			u, err = c.UpdateUser(ctx, u)
		} else {
			u, err = c.InsertUser(ctx, u)
		}
		if err != nil {
			return err
		}
		return printJSON(out, u)
	}

	return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
}

func parseUserFlags(name string, args []string) (user.User, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	id := fs.String("id", "", "user identifier")
	first := fs.String("first", "", "first name")
	last := fs.String("last", "", "last name")
	gender := fs.String("gender", "", "MALE or FEMALE")
	age := fs.Int("age", -1, "age in years")
	email := fs.String("email", "", "email address")
	if err := fs.Parse(args); err != nil {
		return user.User{}, fmt.Errorf("%w: %v", errUsage, err)
	}

	g, err := user.ParseGender(*gender)
	if err != nil {
		return user.User{}, err
	}
	u := user.User{FirstName: *first, LastName: *last, Gender: g, Age: *age, Email: *email}
	if *id != "" {
		if u.UID, err = uuid.Parse(*id); err != nil {
			return user.User{}, fmt.Errorf("%w: %v", errUsage, err)
		}
	}
	return u, nil
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
