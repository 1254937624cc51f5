package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jrsteele09/medihelp-client/internal/utils"
	"github.com/jrsteele09/medihelp-client/users"
	"github.com/pkg/errors"
)

func usage() {
	fmt.Fprint(os.Stderr, `Usage: medihelp <command> [flags]

Commands:
  login     -email -password
  register  -email -first -last -phone -dob -password
  logout
  whoami
  symptoms
  check     -symptoms 1,2 -info text
  checks
  chat      -m text
  doctors
  clinics   [-lat -lng]
  skin      -image path
`)
}

func (a *app) dispatch(ctx context.Context, command string, args []string) error {
	fs := flag.NewFlagSet(command, flag.ContinueOnError)

	switch command {
	case "login":
		email := fs.String("email", "", "account email")
		password := fs.String("password", "", "account password")
		if err := fs.Parse(args); err != nil {
			return err
		}
		return a.sessions.Login(ctx, *email, *password)

	case "register":
		var data users.RegisterData
		fs.StringVar(&data.Email, "email", "", "account email")
		fs.StringVar(&data.FirstName, "first", "", "first name")
		fs.StringVar(&data.LastName, "last", "", "last name")
		fs.StringVar(&data.Phone, "phone", "", "phone number")
		fs.StringVar(&data.DateOfBirth, "dob", "", "date of birth, YYYY-MM-DD")
		fs.StringVar(&data.Password, "password", "", "account password")
		if err := fs.Parse(args); err != nil {
			return err
		}
		data.ConfirmPassword = data.Password
		_, err := a.sessions.Register(ctx, data)
		return err

	case "logout":
		return a.sessions.Logout(ctx)

	case "whoami":
		fmt.Println(describeUser(a.sessions.User()))
		return nil

	case "symptoms":
		symptoms, err := a.client.Symptoms(ctx)
		if err != nil {
			return err
		}
		return printJSON(symptoms)

	case "check":
		ids := fs.String("symptoms", "", "comma separated symptom ids")
		info := fs.String("info", "", "additional information")
		if err := fs.Parse(args); err != nil {
			return err
		}
		symptomIDs, err := parseIDs(*ids)
		if err != nil {
			return err
		}
		check, err := a.client.CreateSymptomCheck(ctx, symptomIDs, *info)
		if err != nil {
			return err
		}
		conditions, err := a.client.PossibleConditions(ctx, check)
		if err != nil {
			a.logger.Warn().Err(err).Msg("Unable to load possible conditions")
		}
		return printJSON(map[string]any{"check": check, "possible_conditions": conditions})

	case "checks":
		checks, err := a.client.SymptomChecks(ctx)
		if err != nil {
			return err
		}
		return printJSON(checks)

	case "chat":
		message := fs.String("m", "", "message for the assistant")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *message == "" {
			return errors.New("chat needs a message")
		}
		reply, err := a.client.Chat(ctx, *message)
		if err != nil {
			return err
		}
		fmt.Println(reply)
		return nil

	case "doctors":
		doctors, err := a.client.Doctors(ctx)
		if err != nil {
			return err
		}
		return printJSON(doctors)

	case "clinics":
		lat := fs.Float64("lat", 0, "latitude for nearby search")
		lng := fs.Float64("lng", 0, "longitude for nearby search")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *lat == 0 && *lng == 0 {
			clinics, err := a.client.Clinics(ctx)
			if err != nil {
				return err
			}
			return printJSON(clinics)
		}
		clinics, err := a.client.NearbyClinics(ctx, *lat, *lng)
		if err != nil {
			return err
		}
		return printJSON(clinics)

	case "skin":
		path := fs.String("image", "", "path to a photo of the affected skin")
		if err := fs.Parse(args); err != nil {
			return err
		}
		f, err := os.Open(*path)
		if err != nil {
			return errors.Wrap(err, "open image")
		}
		defer f.Close()
		result, err := a.client.DiagnoseSkin(ctx, f.Name(), f)
		if err != nil {
			return err
		}
		return printJSON(result)
	}

	usage()
	return errors.Errorf("unknown command %q", command)
}

func describeUser(user *users.Profile) string {
	if user == nil {
		return "Not signed in"
	}
	return fmt.Sprintf("%s <%s> (%s), born %s", user.FullName(), user.Email, user.Role(),
		utils.ValueOr(user.DateOfBirth, "unknown"))
}

func parseIDs(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid symptom id %q", part)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, errors.New("select at least one symptom")
	}
	return ids, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
