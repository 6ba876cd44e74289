package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/dosekeeper/internal/common"
)

// getRequiredText and getPassword are indirections used to facilitate testing.
var getRequiredText = GetRequiredText
var getPassword = GetPassword

var (
	errRegistrationFailed = errors.New("registration failed")
	errLoginFailed        = errors.New("invalid email or password")
)

// Register prompts for a display name, email and password and creates an
// account. The new user is signed in on success.
func (a *App) Register(ctx context.Context) error {
	name, err := getRequiredText(a.reader, "Enter your name", a.out)
	if err != nil {
		return err
	}
	email, err := getRequiredText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if !a.store.SignUp(ctx, name, email, string(password)) {
		return errRegistrationFailed
	}

	printlnFn("Welcome,", name+"!")
	return nil
}

// Login prompts for credentials and signs in.
func (a *App) Login(ctx context.Context) error {
	email, err := getRequiredText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if !a.store.SignIn(ctx, email, string(password)) {
		return errLoginFailed
	}

	if st := a.store.State(); st.User != nil {
		printlnFn("Signed in as", st.User.Name)
	}
	return nil
}

// Logout signs out and wipes app storage on this install.
func (a *App) Logout(ctx context.Context) error {
	a.store.SignOut(ctx)
	printlnFn("Signed out")
	return nil
}
