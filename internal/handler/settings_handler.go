package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"arzweb/internal/app/api"
	"arzweb/internal/app/market"
	"arzweb/internal/app/session"
	"arzweb/internal/pkg/errs"
	"arzweb/internal/pkg/req"
	"arzweb/internal/pkg/resp"
	"arzweb/internal/ui"
)

const maxSettingsForm = 16 << 10

type settingsField struct {
	Name  string
	Label string
	Value string
	Input string
}

type settingsView struct {
	User          market.User
	AvatarPreview string
	Fields        []settingsField
	Editing       string
	Themes        []market.Theme
}

// editableField describes a single-value setting: how it is read from the user,
// how it is validated and how it is sent.
type editableField struct {
	field    api.ProfileField
	label    string
	input    string
	value    func(market.User) string
	validate func(string) *errs.CustomError
	encode   func(string) string
}

var editableFields = []editableField{
	{
		field:    api.FieldNickname,
		label:    "Nickname",
		input:    "text",
		value:    func(u market.User) string { return u.Nickname },
		validate: market.ValidateNickname,
		encode:   strings.TrimSpace,
	},
	{
		field:    api.FieldEmail,
		label:    "Email",
		input:    "email",
		value:    func(u market.User) string { return u.Email },
		validate: market.ValidateEmail,
		encode:   strings.TrimSpace,
	},
	{
		field:    api.FieldTelegram,
		label:    "Telegram",
		input:    "text",
		value:    func(u market.User) string { return u.Telegram },
		validate: market.ValidateTelegram,
		encode:   func(v string) string { return strings.TrimPrefix(strings.TrimSpace(v), "@") },
	},
	{
		field:    api.FieldDescription,
		label:    "About me",
		input:    "textarea",
		value:    func(u market.User) string { return u.Description },
		validate: market.ValidateProfileDescription,
		encode:   func(v string) string { return market.Sanitize(strings.TrimSpace(v)) },
	},
}

func lookupField(name string) (editableField, bool) {
	for _, f := range editableFields {
		if string(f.field) == name {
			return f, true
		}
	}
	return editableField{}, false
}

// settingsPage builds the settings screen. typed replaces the shown value of the
// field being edited so a rejected value is not lost.
func (deps *AppDeps) settingsPage(r *http.Request, editing, typed string) ui.Page {
	s, snap := current(r)
	u := *snap.User

	fields := make([]settingsField, 0, len(editableFields))
	for _, f := range editableFields {
		v := f.value(u)
		if string(f.field) == editing && typed != "" {
			v = typed
		}
		fields = append(fields, settingsField{Name: string(f.field), Label: f.label, Value: v, Input: f.input})
	}

	p := deps.page(r, "Settings")
	p.Data = settingsView{
		User:          u,
		AvatarPreview: deps.previewURL(r, s, session.PreviewAvatar),
		Fields:        fields,
		Editing:       editing,
		Themes:        []market.Theme{market.ThemeDark, market.ThemeLight},
	}
	return p
}

// HandleSettings renders the settings screen, with ?edit=field opening one editor.
func HandleSettings(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		editing := r.URL.Query().Get("edit")
		if _, ok := lookupField(editing); !ok && editing != "password" {
			editing = ""
		}
		deps.render(w, r, http.StatusOK, "settings", deps.settingsPage(r, editing, ""))
	}
}

// HandleUpdateField saves one profile value and reloads the signed-in user.
func HandleUpdateField(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, _ := current(r)
		f, ok := lookupField(chi.URLParam(r, "field"))
		if !ok {
			http.NotFound(w, r)
			return
		}
		name := string(f.field)

		if customErr := req.SetupMultipart(w, r, maxSettingsForm); customErr != nil {
			deps.fail(w, r, "settings", deps.settingsPage(r, name, ""), customErr)
			return
		}
		raw := r.FormValue("value")

		if customErr := f.validate(raw); customErr != nil {
			deps.fail(w, r, "settings", deps.settingsPage(r, name, raw), customErr)
			return
		}

		customErr := submit(r.Context(), s, session.ActionSettings, func(ctx context.Context) error {
			return deps.API.UpdateProfileField(ctx, s, f.field, f.encode(raw))
		})
		if customErr != nil {
			deps.fail(w, r, "settings", deps.settingsPage(r, name, raw), customErr)
			return
		}

		deps.Store.Reload(r.Context(), s)
		logger(r).Info().Str("field", name).Msg("Profile updated")
		redirectFlash(w, r, s, flashSuccess, f.label+" saved.", "/settings")
	}
}

// HandleUpdatePassword changes the password. The API checks the old one.
func HandleUpdatePassword(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, _ := current(r)

		if customErr := req.SetupMultipart(w, r, maxSettingsForm); customErr != nil {
			deps.fail(w, r, "settings", deps.settingsPage(r, "password", ""), customErr)
			return
		}

		in := market.PasswordChange{
			Old:     r.FormValue("old_password"),
			New:     r.FormValue("new_password"),
			Confirm: r.FormValue("confirm_password"),
		}
		if customErr := in.Validate(); customErr != nil {
			deps.fail(w, r, "settings", deps.settingsPage(r, "password", ""), customErr)
			return
		}

		customErr := submit(r.Context(), s, session.ActionSettings, func(ctx context.Context) error {
			return deps.API.UpdatePassword(ctx, s, api.PasswordRequest{
				OldPassword:     in.Old,
				NewPassword:     in.New,
				ConfirmPassword: in.Confirm,
			})
		})
		if customErr != nil {
			deps.fail(w, r, "settings", deps.settingsPage(r, "password", ""), customErr)
			return
		}

		redirectFlash(w, r, s, flashSuccess, "Password changed.", "/settings")
	}
}

// HandleUpdateTheme switches the colour scheme.
func HandleUpdateTheme(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, _ := current(r)

		if customErr := req.SetupMultipart(w, r, maxSettingsForm); customErr != nil {
			failRedirect(w, r, s, customErr, "/settings")
			return
		}
		theme, ok := market.ParseTheme(r.FormValue("value"))
		if !ok {
			failRedirect(w, r, s, errs.NewError(errs.ErrThemeInvalid), "/settings")
			return
		}

		customErr := submit(r.Context(), s, session.ActionSettings, func(ctx context.Context) error {
			return deps.API.UpdateProfileField(ctx, s, api.FieldTheme, string(theme))
		})
		if customErr != nil {
			failRedirect(w, r, s, customErr, "/settings")
			return
		}

		deps.Store.Reload(r.Context(), s)
		resp.Redirect(w, r, "/settings")
	}
}

// HandleAvatarUpload stages a new avatar for preview.
func HandleAvatarUpload(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, _ := current(r)

		if customErr := setupUpload(w, r, market.AvatarRule); customErr != nil {
			failRedirect(w, r, s, customErr, "/settings")
			return
		}
		if customErr := deps.stageUpload(r, s, session.PreviewAvatar, "avatar", market.AvatarRule); customErr != nil {
			failRedirect(w, r, s, customErr, "/settings")
			return
		}
		resp.Redirect(w, r, "/settings")
	}
}

// HandleAvatarCommit uploads the staged avatar.
func HandleAvatarCommit(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, _ := current(r)

		customErr := deps.commitPreview(r, s, session.PreviewAvatar, session.ActionSettings, func(ctx context.Context, f api.File) error {
			return deps.API.UpdateAvatar(ctx, s, f)
		})
		if customErr != nil {
			failRedirect(w, r, s, customErr, "/settings")
			return
		}

		deps.Store.Reload(r.Context(), s)
		redirectFlash(w, r, s, flashSuccess, "Avatar updated.", "/settings")
	}
}

// HandleAvatarCancel drops the staged avatar.
func HandleAvatarCancel(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, _ := current(r)
		deps.cancelPreview(r, s, session.PreviewAvatar)
		resp.Redirect(w, r, "/settings")
	}
}
