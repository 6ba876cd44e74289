package cli

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/dosekeeper/internal/avatars"
	"github.com/dmitrijs2005/dosekeeper/internal/filex"
	"github.com/gabriel-vasile/mimetype"
)

const maxAvatarBytes = 5 << 20

var (
	errProfileUpdate = errors.New("profile update failed")
	errNotAnImage    = errors.New("file is not an image")
)

func (a *App) WhoAmI(_ context.Context) error {
	st := a.store.State()
	if st.User == nil {
		return nil
	}
	printlnFn(st.User.Name, "<"+st.User.Email+">", st.User.ID)
	if st.IsNewUser {
		printlnFn("New account: type 'onboarded' once you have finished setting up.")
	}
	return nil
}

func (a *App) ShowProfile(ctx context.Context) error {
	p, err := a.store.Profile(ctx)
	if err != nil {
		return err
	}
	if p == nil {
		printlnFn("No profile found")
		return nil
	}
	printlnFn("Name:   ", p.Name)
	printlnFn("Email:  ", p.Email)
	if p.AvatarURL != nil {
		printlnFn("Avatar: ", *p.AvatarURL)
	}
	printlnFn("Updated:", p.UpdatedAt.Local().Format(time.DateTime))
	return nil
}

// Rename sets the display name, taken from args or prompted for.
func (a *App) Rename(ctx context.Context, args []string) error {
	name, err := argOrPrompt(args, a.reader, "Enter new name", a.out)
	if err != nil {
		return err
	}
	if !a.store.UpdateProfile(ctx, name) {
		return errProfileUpdate
	}
	printlnFn("Name updated")
	return nil
}

// Avatar uploads an image file and stores its URL on the profile.
func (a *App) Avatar(ctx context.Context, args []string) error {
	if a.uploader == nil || !a.uploader.Enabled() {
		return avatars.ErrNotConfigured
	}
	path, err := argOrPrompt(args, a.reader, "Path to image", a.out)
	if err != nil {
		return err
	}

	data, err := filex.ReadLimited(path, maxAvatarBytes)
	if err != nil {
		return err
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return errNotAnImage
	}

	st := a.store.State()
	if st.User == nil {
		return nil
	}
	url, err := a.uploader.Upload(ctx, st.User.ID, data, mt.String())
	if err != nil {
		return err
	}
	if !a.store.UpdateAvatar(ctx, url) {
		return errProfileUpdate
	}
	printlnFn("Avatar updated:", url)
	return nil
}

func (a *App) Onboarded(ctx context.Context) error {
	a.store.ClearNewUserFlag(ctx)
	printlnFn("All set!")
	return nil
}
