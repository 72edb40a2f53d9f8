package errs

import "net/http"

// errorMap stores the CustomError template for every application error code.
// Messages containing a verb are formatted with the details passed to NewError.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:         {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrUnsupportedMediaType:  {Code: ErrUnsupportedMediaType, Message: "Unsupported request format.", Status: http.StatusUnsupportedMediaType},
	ErrInvalidJSONFormat:     {Code: ErrInvalidJSONFormat, Message: "Unsupported request format.", Status: http.StatusBadRequest},
	ErrFormParseFailed:       {Code: ErrFormParseFailed, Message: "Failed to process uploaded data.", Status: http.StatusBadRequest},
	ErrRequestEntityTooLarge: {Code: ErrRequestEntityTooLarge, Message: "Request size is too large.", Status: http.StatusRequestEntityTooLarge},
	ErrRateLimitExceeded:     {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},
	ErrFormExpired:           {Code: ErrFormExpired, Message: "This form has expired. Please try again.", Status: http.StatusBadRequest},

	// 2xxx: Client-side Validation Errors
	ErrFieldsRequired:      {Code: ErrFieldsRequired, Message: "Fill in all fields."},
	ErrEmailInvalid:        {Code: ErrEmailInvalid, Message: "Enter a valid email address."},
	ErrNicknameTooShort:    {Code: ErrNicknameTooShort, Message: "Nickname must be at least %d characters."},
	ErrPasswordTooShort:    {Code: ErrPasswordTooShort, Message: "Password must be at least %d characters."},
	ErrPasswordMismatch:    {Code: ErrPasswordMismatch, Message: "Passwords do not match."},
	ErrVerifyCodeRequired:  {Code: ErrVerifyCodeRequired, Message: "Enter the verification code."},
	ErrVerifyCodeInvalid:   {Code: ErrVerifyCodeInvalid, Message: "The code must contain exactly 6 digits."},
	ErrNicknameEmpty:       {Code: ErrNicknameEmpty, Message: "Nickname cannot be empty."},
	ErrTelegramEmpty:       {Code: ErrTelegramEmpty, Message: "Telegram handle cannot be empty."},
	ErrDescriptionLength:   {Code: ErrDescriptionLength, Message: "Description must be between %d and %d characters."},
	ErrThemeInvalid:        {Code: ErrThemeInvalid, Message: "Unknown theme."},
	ErrOldPasswordRequired: {Code: ErrOldPasswordRequired, Message: "Enter your current password."},

	ErrImageRequired:     {Code: ErrImageRequired, Message: "Please upload an image."},
	ErrImageTooLarge:     {Code: ErrImageTooLarge, Message: "Image must not exceed %d MB."},
	ErrImageNotImage:     {Code: ErrImageNotImage, Message: "Only image files are allowed."},
	ErrImageResolution:   {Code: ErrImageResolution, Message: "Maximum resolution is %dx%d pixels, yours is %dx%d."},
	ErrImageTooSmall:     {Code: ErrImageTooSmall, Message: "Minimum resolution is %dx%d pixels, yours is %dx%d."},
	ErrImageAspectRatio:  {Code: ErrImageAspectRatio, Message: "Image aspect ratio must be between %.1f and %.1f."},
	ErrImageUnreadable:   {Code: ErrImageUnreadable, Message: "The image could not be read."},
	ErrBackgroundMissing: {Code: ErrBackgroundMissing, Message: "There is no background to delete."},

	ErrTitleRequired:       {Code: ErrTitleRequired, Message: "Enter a title."},
	ErrTitleTooLong:        {Code: ErrTitleTooLong, Message: "Title must not exceed %d characters."},
	ErrDescriptionRequired: {Code: ErrDescriptionRequired, Message: "Enter a description."},
	ErrDescriptionTooLong:  {Code: ErrDescriptionTooLong, Message: "Description must not exceed %d characters."},
	ErrCurrencyRequired:    {Code: ErrCurrencyRequired, Message: "Choose a currency."},
	ErrCurrencyUnavailable: {Code: ErrCurrencyUnavailable, Message: "Currency %s is not available on server %s."},
	ErrPriceRequired:       {Code: ErrPriceRequired, Message: "Enter a price."},
	ErrPriceOutOfRange:     {Code: ErrPriceOutOfRange, Message: "Price must be between %s and %s %s."},
	ErrHoursLimitRequired:  {Code: ErrHoursLimitRequired, Message: "Enter the hour limit (from 1 to 180)."},
	ErrHoursLimitRange:     {Code: ErrHoursLimitRange, Message: "Hour limit must be between %d and %d."},
	ErrListingTypeInvalid:  {Code: ErrListingTypeInvalid, Message: "This listing type is not available in the category."},
	ErrServerInvalid:       {Code: ErrServerInvalid, Message: "Unknown game server."},
	ErrCategoryInvalid:     {Code: ErrCategoryInvalid, Message: "Unknown category.", Status: http.StatusNotFound},
	ErrListingCooldown:     {Code: ErrListingCooldown, Message: "You can create a new listing in %d seconds.", Status: http.StatusTooManyRequests},

	ErrReviewTextRequired: {Code: ErrReviewTextRequired, Message: "Write a review."},
	ErrReviewTextTooLong:  {Code: ErrReviewTextTooLong, Message: "Review must not exceed %d characters."},
	ErrRatingInvalid:      {Code: ErrRatingInvalid, Message: "Rating must be between 1 and 5 stars."},
	ErrReviewNotAllowed:   {Code: ErrReviewNotAllowed, Message: "You can only review listings you have viewed.", Status: http.StatusForbidden},
	ErrReportReason:       {Code: ErrReportReason, Message: "Choose a reason for the report."},
	ErrConfirmRequired:    {Code: ErrConfirmRequired, Message: "Please confirm this action."},

	// 3xxx: Session and Throttling Errors
	ErrUnauthorized:      {Code: ErrUnauthorized, Message: "Please sign in to continue.", Status: http.StatusUnauthorized},
	ErrAlreadySubmitting: {Code: ErrAlreadySubmitting, Message: "Your previous request is still being processed.", Status: http.StatusConflict},
	ErrCooldown:          {Code: ErrCooldown, Message: "Please wait %d seconds.", Status: http.StatusTooManyRequests},
	ErrNotPending:        {Code: ErrNotPending, Message: "There is no registration waiting for verification."},
	ErrListingNotFound:   {Code: ErrListingNotFound, Message: "Listing not found.", Status: http.StatusNotFound},
	ErrNotOwner:          {Code: ErrNotOwner, Message: "You can only manage your own listings.", Status: http.StatusForbidden},

	// 4xxx: Marketplace API Errors
	ErrConnection:    {Code: ErrConnection, Message: "Connection error. Please try again.", Status: http.StatusBadGateway},
	ErrRemote:        {Code: ErrRemote, Message: "%s", Status: http.StatusBadRequest},
	ErrRemoteGeneric: {Code: ErrRemoteGeneric, Message: "The request failed. Please try again later.", Status: http.StatusBadGateway},

	// 5xxx: Internal System Errors
	ErrUnknown:              {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrPreviewStorageFailed: {Code: ErrPreviewStorageFailed, Message: "Image upload failed. Please try again.", Status: http.StatusInternalServerError},
}
