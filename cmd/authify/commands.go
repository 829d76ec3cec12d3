package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	domainauth "github.com/target/authify-client/internal/domain/auth"
	apperrors "github.com/target/authify-client/internal/errors"
	"github.com/target/authify-client/internal/service"
)

const defaultAttempts = 3

var errInputClosed = errors.New("input closed")

func newFlagSet(ctx *commandContext, name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(ctx.Err)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	if fs.NArg() > 0 {
		_ = writef(fs.Output(), "unexpected arguments: %s\n", strings.Join(fs.Args(), " "))
		return errUsage
	}
	return nil
}

// prompt returns current when it is set, otherwise reads one line from the user.
func prompt(ctx *commandContext, label, current string) (string, error) {
	if current != "" {
		return current, nil
	}
	return promptLine(ctx, label, true)
}

func promptSecret(ctx *commandContext, label, current string) (string, error) {
	if current != "" {
		return current, nil
	}
	return promptLine(ctx, label, false)
}

func promptLine(ctx *commandContext, label string, trim bool) (string, error) {
	if err := writef(ctx.Out, "%s: ", label); err != nil {
		return "", err
	}
	line, err := ctx.In.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		if errors.Is(err, io.EOF) {
			return "", errInputClosed
		}
		return "", fmt.Errorf("read input: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if trim {
		line = strings.TrimSpace(line)
	}
	return line, nil
}

// describeError renders err the way the user should see it.
func describeError(err error) string {
	msg := apperrors.UserMessage(err, err.Error())
	if field := apperrors.GetField(err); field != "" {
		return field + ": " + msg
	}
	return msg
}

func printIdentity(ctx *commandContext, id domainauth.Identity) error {
	verified := "no"
	if id.IsVerified {
		verified = "yes"
	}
	return writef(ctx.Out, "Name:     %s\nEmail:    %s\nUser ID:  %s\nVerified: %s\n",
		id.Name, id.Email, id.UserID, verified)
}

func runRegister(ctx *commandContext, args []string) error {
	fs := newFlagSet(ctx, "register")
	name := fs.String("name", "", "Display name (prompted when empty)")
	email := fs.String("email", "", "Email address (prompted when empty)")
	password := fs.String("password", "", "Password (prompted when empty)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	var err error
	if *name, err = prompt(ctx, "Name", *name); err != nil {
		return err
	}
	if *email, err = prompt(ctx, "Email", *email); err != nil {
		return err
	}
	if *password, err = promptSecret(ctx, "Password", *password); err != nil {
		return err
	}

	ack, err := ctx.Services.Sessions.Register(ctx.Ctx, *name, *email, *password)
	if err != nil {
		return err
	}
	return writef(ctx.Out, "Account created for %s (%s).\nRun `authify verify-email -email %s` once the OTP arrives, then log in.\n",
		ack.Email, ack.UserID, ack.Email)
}

func runLogin(ctx *commandContext, args []string) error {
	fs := newFlagSet(ctx, "login")
	email := fs.String("email", "", "Email address (prompted when empty)")
	password := fs.String("password", "", "Password (prompted when empty)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	var err error
	if *email, err = prompt(ctx, "Email", *email); err != nil {
		return err
	}
	if *password, err = promptSecret(ctx, "Password", *password); err != nil {
		return err
	}

	id, err := ctx.Services.Sessions.Login(ctx.Ctx, *email, *password)
	if err != nil {
		return err
	}
	if err := writef(ctx.Out, "Logged in as %s <%s>\n", id.Name, id.Email); err != nil {
		return err
	}
	if !id.IsVerified {
		return writef(ctx.Out, "Your email is not verified. Run `authify verify` to verify it.\n")
	}
	return nil
}

func runLogout(ctx *commandContext, args []string) error {
	if err := parseFlags(newFlagSet(ctx, "logout"), args); err != nil {
		return err
	}
	ctx.Services.Sessions.Logout(ctx.Ctx)
	return writef(ctx.Out, "Logged out.\n")
}

func runWhoami(ctx *commandContext, args []string) error {
	if err := parseFlags(newFlagSet(ctx, "whoami"), args); err != nil {
		return err
	}
	id, ok := ctx.Services.Sessions.Current()
	if !ok {
		return apperrors.NoActiveSession(service.MsgNoSession)
	}
	return printIdentity(ctx, id)
}

func runRefresh(ctx *commandContext, args []string) error {
	if err := parseFlags(newFlagSet(ctx, "refresh"), args); err != nil {
		return err
	}
	id, err := ctx.Services.Sessions.RefreshProfile(ctx.Ctx)
	if err != nil {
		return err
	}
	return printIdentity(ctx, id)
}

func runVerify(ctx *commandContext, args []string) error {
	fs := newFlagSet(ctx, "verify")
	otp := fs.String("otp", "", "OTP to submit without prompting")
	attempts := fs.Int("attempts", defaultAttempts, "Number of codes to try before giving up")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	sessions := ctx.Services.Sessions
	id, ok := sessions.Current()
	if !ok {
		return apperrors.NoActiveSession(service.MsgNoSession)
	}
	if id.IsVerified {
		return writef(ctx.Out, "Your email is already verified.\n")
	}

	wf := ctx.Services.Verification
	if err := wf.RequestOtp(ctx.Ctx); err != nil {
		return err
	}
	if err := writef(ctx.Out, "An OTP has been sent to %s.\n", id.Email); err != nil {
		return err
	}

	if *otp != "" {
		if err := wf.SubmitOtp(ctx.Ctx, *otp); err != nil {
			return err
		}
		return writef(ctx.Out, "Email verified.\n")
	}

	var lastErr error
	for range max(*attempts, 1) {
		code, err := prompt(ctx, "OTP (leave blank to skip)", "")
		if err != nil {
			return err
		}
		if code == "" {
			wf.Skip()
			return writef(ctx.Out, "Verification skipped.\n")
		}
		lastErr = wf.SubmitOtp(ctx.Ctx, code)
		if lastErr == nil {
			return writef(ctx.Out, "Email verified.\n")
		}
		if !sessions.IsAuthenticated() {
			return lastErr
		}
		if err := writef(ctx.Err, "%s\n", describeError(lastErr)); err != nil {
			return err
		}
	}
	return lastErr
}

func runVerifyEmail(ctx *commandContext, args []string) error {
	fs := newFlagSet(ctx, "verify-email")
	email := fs.String("email", "", "Email address (prompted when empty)")
	otp := fs.String("otp", "", "OTP from the verification email (prompted when empty)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	var err error
	if *email, err = prompt(ctx, "Email", *email); err != nil {
		return err
	}
	if *otp, err = prompt(ctx, "OTP", *otp); err != nil {
		return err
	}

	if err := ctx.Services.Verification.ConfirmEmail(ctx.Ctx, *email, *otp); err != nil {
		return err
	}
	return writef(ctx.Out, "Email verified.\n")
}

func runResetPassword(ctx *commandContext, args []string) error {
	fs := newFlagSet(ctx, "reset-password")
	email := fs.String("email", "", "Email address of the account (prompted when empty)")
	attempts := fs.Int("attempts", defaultAttempts, "Number of reset attempts before giving up")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	var err error
	if *email, err = prompt(ctx, "Email", *email); err != nil {
		return err
	}

	wf := ctx.Services.Reset
	if err := wf.RequestReset(ctx.Ctx, *email); err != nil {
		return err
	}
	if err := writef(ctx.Out, "An OTP has been sent to %s.\n", wf.Snapshot().Email); err != nil {
		return err
	}

	var lastErr error
	for range max(*attempts, 1) {
		otp, err := prompt(ctx, "OTP", "")
		if err != nil {
			return err
		}
		newPassword, err := promptSecret(ctx, "New password", "")
		if err != nil {
			return err
		}
		confirm, err := promptSecret(ctx, "Confirm password", "")
		if err != nil {
			return err
		}

		lastErr = wf.CompleteReset(ctx.Ctx, otp, newPassword, confirm)
		if lastErr == nil {
			return writef(ctx.Out, "Password reset. You can now log in with your new password.\n")
		}
		if errors.Is(lastErr, service.ErrWorkflowFinished) {
			return lastErr
		}
		if err := writef(ctx.Err, "%s\n", describeError(lastErr)); err != nil {
			return err
		}
	}
	return lastErr
}
