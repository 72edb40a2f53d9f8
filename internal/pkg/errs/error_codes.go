/*
Package errs provides custom error types and application-level error code constants.

Codes are grouped by origin: request handling (1xxx), client-side validation that never
reaches the marketplace API (2xxx), session state and throttling (3xxx), failures reported
by or while talking to the marketplace API (4xxx) and internal failures (5xxx).
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON format is incorrect.
	ErrInvalidJSONFormat = 1003

	// ErrFormParseFailed indicates failure to parse multipart or URL-encoded form data.
	ErrFormParseFailed = 1005

	// ErrRequestEntityTooLarge indicates that the request body size exceeded the server limit.
	ErrRequestEntityTooLarge = 1006

	// ErrRateLimitExceeded indicates that the per-IP request rate was exceeded.
	ErrRateLimitExceeded = 1007

	// ErrFormExpired indicates that the one-time form token was missing, reused or expired.
	ErrFormExpired = 1008
)

// 2xxx: Client-side Validation Errors
const (
	ErrFieldsRequired      = 2001
	ErrEmailInvalid        = 2002
	ErrNicknameTooShort    = 2003
	ErrPasswordTooShort    = 2004
	ErrPasswordMismatch    = 2005
	ErrVerifyCodeRequired  = 2006
	ErrVerifyCodeInvalid   = 2007
	ErrNicknameEmpty       = 2008
	ErrTelegramEmpty       = 2009
	ErrDescriptionLength   = 2010
	ErrThemeInvalid        = 2011
	ErrOldPasswordRequired = 2012

	// Images
	ErrImageRequired     = 2101
	ErrImageTooLarge     = 2102
	ErrImageNotImage     = 2103
	ErrImageResolution   = 2104
	ErrImageAspectRatio  = 2105
	ErrImageUnreadable   = 2106
	ErrImageTooSmall     = 2107
	ErrBackgroundMissing = 2108

	// Listings
	ErrTitleRequired       = 2201
	ErrTitleTooLong        = 2202
	ErrDescriptionRequired = 2203
	ErrDescriptionTooLong  = 2204
	ErrCurrencyRequired    = 2205
	ErrCurrencyUnavailable = 2206
	ErrPriceRequired       = 2207
	ErrPriceOutOfRange     = 2208
	ErrHoursLimitRequired  = 2209
	ErrHoursLimitRange     = 2210
	ErrListingTypeInvalid  = 2211
	ErrServerInvalid       = 2212
	ErrCategoryInvalid     = 2213
	ErrListingCooldown     = 2214

	// Reviews and reports
	ErrReviewTextRequired = 2301
	ErrReviewTextTooLong  = 2302
	ErrRatingInvalid      = 2303
	ErrReviewNotAllowed   = 2304
	ErrReportReason       = 2305
	ErrConfirmRequired    = 2306
)

// 3xxx: Session and Throttling Errors
const (
	// ErrUnauthorized indicates the action needs an authenticated session.
	ErrUnauthorized = 3001

	// ErrAlreadySubmitting indicates the same action is already in flight for this session.
	ErrAlreadySubmitting = 3002

	// ErrCooldown indicates the action is on cooldown; the message carries the remaining seconds.
	ErrCooldown = 3003

	// ErrNotPending indicates there is no registration awaiting email verification.
	ErrNotPending = 3004

	// ErrListingNotFound indicates the listing is not among the ones this session has seen.
	ErrListingNotFound = 3005

	// ErrNotOwner indicates the listing belongs to another user.
	ErrNotOwner = 3006
)

// 4xxx: Marketplace API Errors
const (
	// ErrConnection indicates a transport failure while talking to the marketplace API.
	ErrConnection = 4001

	// ErrRemote carries a server-reported error message verbatim.
	ErrRemote = 4002

	// ErrRemoteGeneric is used when the server failed without a usable message.
	ErrRemoteGeneric = 4003
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general internal error.
	ErrUnknown = 5000

	// ErrPreviewStorageFailed indicates a staged preview image could not be stored or read.
	ErrPreviewStorageFailed = 5001
)
