package errors

// Error code constants.
// Format: CATEGORY_SPECIFIC_DETAIL
// Clients map these codes to localized messages.

const (
	// ==================== Auth (AUTH_) ====================
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"        // login required
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS" // wrong identifier/password
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"       // device token expired
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"       // device token malformed
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"        // duplicate account
	AuthWrongOldPassword   = "AUTH_WRONG_OLD_PASSWORD"  // change password mismatch
	AuthGuestReadOnly      = "AUTH_GUEST_READ_ONLY"     // guest tried to write
	AuthTooManyAttempts    = "AUTH_TOO_MANY_ATTEMPTS"   // login throttled

	// ==================== Authorization (AUTHZ_) ====================
	AuthzForbidden = "AUTHZ_FORBIDDEN" // not the owner

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput  = "VALIDATION_INVALID_INPUT"
	ValidationInvalidEmail  = "VALIDATION_INVALID_EMAIL_DOMAIN"
	ValidationWeakPassword  = "VALIDATION_WEAK_PASSWORD"
	ValidationInvalidRating = "VALIDATION_INVALID_RATING"
	ValidationRequired      = "VALIDATION_REQUIRED"

	// ==================== Resource (RESOURCE_) ====================
	ResourceNotFound = "RESOURCE_NOT_FOUND"
	UserNotFound     = "USER_NOT_FOUND"
	ReviewNotFound   = "REVIEW_NOT_FOUND"
	TargetNotFound   = "TARGET_NOT_FOUND"

	// ==================== Review (REVIEW_) ====================
	ReviewSubmitInProgress = "REVIEW_SUBMIT_IN_PROGRESS"

	// ==================== Cart (CART_) ====================
	CartStallConflict      = "CART_STALL_CONFLICT" // switching stalls needs confirmation
	CartCheckoutInProgress = "CART_CHECKOUT_IN_PROGRESS"
	CartEmpty              = "CART_EMPTY"

	// ==================== Upload (UPLOAD_) ====================
	UploadInvalidFileType = "UPLOAD_INVALID_FILE_TYPE"
	UploadFailed          = "UPLOAD_FAILED"

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError = "INTERNAL_SERVER_ERROR"
	InternalGateway     = "INTERNAL_GATEWAY_UNAVAILABLE" // transient simulated backend failure
	InternalRateLimited = "INTERNAL_RATE_LIMITED"
)
