package market

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"arzweb/internal/pkg/errs"
)

const (
	MinNicknameLength     = 3
	MinPasswordLength     = 6
	VerifyCodeLength      = 6
	MaxTitleLength        = 25
	MaxDescriptionLength  = 500
	MinHoursLimit         = 1
	MaxHoursLimit         = 180
	MaxReviewLength       = 1000
	MinProfileDescription = 3
	MaxProfileDescription = 200
	MaxReportDescription  = 500
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// isDigits reports whether s is a non-empty run of ASCII digits.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ValidateLogin checks that both credentials are present.
func ValidateLogin(nickname, password string) *errs.CustomError {
	if strings.TrimSpace(nickname) == "" || password == "" {
		return errs.NewError(errs.ErrFieldsRequired)
	}
	return nil
}

// Registration is the sign-up form.
type Registration struct {
	Nickname string
	Email    string
	Password string
	Confirm  string
}

// Validate applies the sign-up rules in form order.
func (r Registration) Validate() *errs.CustomError {
	if strings.TrimSpace(r.Nickname) == "" || strings.TrimSpace(r.Email) == "" || r.Password == "" || r.Confirm == "" {
		return errs.NewError(errs.ErrFieldsRequired)
	}
	if err := ValidateEmail(r.Email); err != nil {
		return err
	}
	if runeLen(strings.TrimSpace(r.Nickname)) < MinNicknameLength {
		return errs.NewError(errs.ErrNicknameTooShort, MinNicknameLength)
	}
	if runeLen(r.Password) < MinPasswordLength {
		return errs.NewError(errs.ErrPasswordTooShort, MinPasswordLength)
	}
	if r.Password != r.Confirm {
		return errs.NewError(errs.ErrPasswordMismatch)
	}
	return nil
}

// ValidateEmail checks the address shape only.
func ValidateEmail(email string) *errs.CustomError {
	if !emailPattern.MatchString(strings.TrimSpace(email)) {
		return errs.NewError(errs.ErrEmailInvalid)
	}
	return nil
}

// ValidateVerifyCode returns the trimmed code when it is exactly six digits.
func ValidateVerifyCode(code string) (string, *errs.CustomError) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", errs.NewError(errs.ErrVerifyCodeRequired)
	}
	if len(code) != VerifyCodeLength || !isDigits(code) {
		return "", errs.NewError(errs.ErrVerifyCodeInvalid)
	}
	return code, nil
}

// ValidateNickname is used by settings, where only emptiness is checked.
func ValidateNickname(nickname string) *errs.CustomError {
	if strings.TrimSpace(nickname) == "" {
		return errs.NewError(errs.ErrNicknameEmpty)
	}
	return nil
}

// ValidateTelegram requires a non-empty handle.
func ValidateTelegram(handle string) *errs.CustomError {
	if trimHandle(handle) == "" {
		return errs.NewError(errs.ErrTelegramEmpty)
	}
	return nil
}

// ValidateProfileDescription bounds the "about me" text.
func ValidateProfileDescription(description string) *errs.CustomError {
	n := runeLen(strings.TrimSpace(description))
	if n < MinProfileDescription || n > MaxProfileDescription {
		return errs.NewError(errs.ErrDescriptionLength, MinProfileDescription, MaxProfileDescription)
	}
	return nil
}

// PasswordChange is the settings password form.
type PasswordChange struct {
	Old     string
	New     string
	Confirm string
}

// Validate checks the three fields before the API is asked to verify the old password.
func (p PasswordChange) Validate() *errs.CustomError {
	if p.Old == "" {
		return errs.NewError(errs.ErrOldPasswordRequired)
	}
	if p.New == "" || p.Confirm == "" {
		return errs.NewError(errs.ErrFieldsRequired)
	}
	if runeLen(p.New) < MinPasswordLength {
		return errs.NewError(errs.ErrPasswordTooShort, MinPasswordLength)
	}
	if p.New != p.Confirm {
		return errs.NewError(errs.ErrPasswordMismatch)
	}
	return nil
}

// ListingDraft is the raw create or edit form.
type ListingDraft struct {
	Category    Category
	Server      string
	Type        string
	Title       string
	Description string
	Currency    string
	Price       string
	HoursLimit  string
	Image       *ImageInfo
}

// ListingInput is a validated draft ready to be sent to the API.
type ListingInput struct {
	Category    Category
	Server      string
	Type        ListingType
	Title       string
	Description string
	Currency    Currency
	Price       int64
	PricePeriod string
	HoursLimit  int
}

// Validate checks a draft. requireImage is false when editing, where the image is optional.
// Text is measured before escaping and returned escaped.
func (d ListingDraft) Validate(requireImage bool) (ListingInput, *errs.CustomError) {
	var in ListingInput

	if !IsServer(d.Server) {
		return in, errs.NewError(errs.ErrServerInvalid)
	}
	lt, ok := ParseListingType(d.Type)
	if !ok || !d.Category.Allows(lt) {
		return in, errs.NewError(errs.ErrListingTypeInvalid)
	}

	if d.Image == nil {
		if requireImage {
			return in, errs.NewError(errs.ErrImageRequired)
		}
	} else if err := ListingImageRule.Check(*d.Image); err != nil {
		return in, err
	}

	title := strings.TrimSpace(d.Title)
	if title == "" {
		return in, errs.NewError(errs.ErrTitleRequired)
	}
	if runeLen(title) > MaxTitleLength {
		return in, errs.NewError(errs.ErrTitleTooLong, MaxTitleLength)
	}

	description := strings.TrimSpace(d.Description)
	if description == "" {
		return in, errs.NewError(errs.ErrDescriptionRequired)
	}
	if runeLen(description) > MaxDescriptionLength {
		return in, errs.NewError(errs.ErrDescriptionTooLong, MaxDescriptionLength)
	}

	currency := Currency(strings.TrimSpace(d.Currency))
	if currency == "" {
		return in, errs.NewError(errs.ErrCurrencyRequired)
	}
	if !CurrencyAvailable(d.Server, currency) {
		return in, errs.NewError(errs.ErrCurrencyUnavailable, currency, d.Server)
	}

	in = ListingInput{
		Category:    d.Category,
		Server:      d.Server,
		Type:        lt,
		Title:       Sanitize(title),
		Description: Sanitize(description),
		Currency:    currency,
	}

	if currency != CurrencyNegotiable {
		price, err := parsePrice(lt, currency, d.Price)
		if err != nil {
			return ListingInput{}, err
		}
		in.Price = price
		if r, ok := PriceRangeFor(lt, currency); ok {
			in.PricePeriod = r.Period
		}
	}

	if lt.Rentable() {
		hours, err := ParseHoursLimit(d.HoursLimit)
		if err != nil {
			return ListingInput{}, err
		}
		in.HoursLimit = hours
	}

	return in, nil
}

func parsePrice(t ListingType, c Currency, raw string) (int64, *errs.CustomError) {
	raw = strings.TrimSpace(raw)
	if strings.TrimLeft(raw, "0") == "" {
		return 0, errs.NewError(errs.ErrPriceRequired)
	}

	r, ok := PriceRangeFor(t, c)
	if !ok {
		return 0, errs.NewError(errs.ErrCurrencyRequired)
	}

	if !isDigits(raw) {
		return 0, errs.NewError(errs.ErrPriceOutOfRange, FormatNumber(r.Min), FormatNumber(r.Max), c.Symbol())
	}
	price, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || !r.Contains(price) {
		return 0, errs.NewError(errs.ErrPriceOutOfRange, FormatNumber(r.Min), FormatNumber(r.Max), c.Symbol())
	}
	return price, nil
}

// ParseHoursLimit validates the hour limit of rentable listings. Anything but plain
// digits is out of range.
func ParseHoursLimit(raw string) (int, *errs.CustomError) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, errs.NewError(errs.ErrHoursLimitRequired)
	}

	hours, err := strconv.Atoi(raw)
	if err != nil || !isDigits(raw) || hours < MinHoursLimit || hours > MaxHoursLimit {
		return 0, errs.NewError(errs.ErrHoursLimitRange, MinHoursLimit, MaxHoursLimit)
	}
	return hours, nil
}

// ReviewDraft is the raw review form.
type ReviewDraft struct {
	AdID   int64
	Text   string
	Rating string
	Proof  *ImageInfo
}

// ReviewInput is a validated review.
type ReviewInput struct {
	AdID   int64
	Text   string
	Rating int
}

// Validate checks text, proof image and rating in that order.
func (d ReviewDraft) Validate() (ReviewInput, *errs.CustomError) {
	text := strings.TrimSpace(d.Text)
	if text == "" {
		return ReviewInput{}, errs.NewError(errs.ErrReviewTextRequired)
	}
	if runeLen(text) > MaxReviewLength {
		return ReviewInput{}, errs.NewError(errs.ErrReviewTextTooLong, MaxReviewLength)
	}

	if d.Proof == nil {
		return ReviewInput{}, errs.NewError(errs.ErrImageRequired)
	}
	if err := ProofImageRule.Check(*d.Proof); err != nil {
		return ReviewInput{}, err
	}

	rating, err := strconv.Atoi(strings.TrimSpace(d.Rating))
	if err != nil || rating < 1 || rating > 5 {
		return ReviewInput{}, errs.NewError(errs.ErrRatingInvalid)
	}

	return ReviewInput{AdID: d.AdID, Text: Sanitize(text), Rating: rating}, nil
}

// ValidateReport returns the sanitized description when the reason is one of ReportReasons.
func ValidateReport(reason, description string) (string, *errs.CustomError) {
	known := false
	for _, r := range ReportReasons {
		if r == reason {
			known = true
			break
		}
	}
	if !known {
		return "", errs.NewError(errs.ErrReportReason)
	}

	description = strings.TrimFunc(description, unicode.IsSpace)
	if runeLen(description) > MaxReportDescription {
		return "", errs.NewError(errs.ErrDescriptionTooLong, MaxReportDescription)
	}
	return Sanitize(description), nil
}
