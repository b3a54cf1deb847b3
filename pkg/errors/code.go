package errors

// ErrorCode represents a unique error identifier.
// Code ranges are partitioned per module:
// 10000-10999: System & Common errors
// 11000-11999: Auth & User module errors
// 12000-12999: File transfer module errors
// 13000-13999: Code execution module errors
type ErrorCode int

const (
	// ========== System & Common Errors (10000-10999) ==========

	// General (10000-10099)
	Success             ErrorCode = 0
	InternalServerError ErrorCode = 10001
	InvalidParams       ErrorCode = 10002
	NotFound            ErrorCode = 10003
	Unauthorized        ErrorCode = 10004
	Forbidden           ErrorCode = 10005
	TooManyRequests     ErrorCode = 10006
	ServiceUnavailable  ErrorCode = 10007

	// Validation errors (10300-10399)
	ValidationFailed ErrorCode = 10300

	// ========== Auth & User Module Errors (11000-11999) ==========

	// Authentication (11000-11099)
	UserNotFound          ErrorCode = 11001
	UserAlreadyExists     ErrorCode = 11002
	InvalidCredentials    ErrorCode = 11003
	TokenExpired          ErrorCode = 11004
	TokenInvalid          ErrorCode = 11005
	TokenGenerationFailed ErrorCode = 11006
	NotLoggedIn           ErrorCode = 11007

	// ========== File Transfer Module Errors (12000-12999) ==========

	// Uploads (12000-12099)
	FileNotFound      ErrorCode = 12000
	FileUploadFailed  ErrorCode = 12001
	FileTooLarge      ErrorCode = 12002
	UnsafeFilename    ErrorCode = 12003
	FileListingFailed ErrorCode = 12004

	// ========== Code Execution Module Errors (13000-13999) ==========

	// Request validation (13000-13099)
	LanguageNotSupported ErrorCode = 13000
	SourceTooLarge       ErrorCode = 13001

	// Engine (13100-13199)
	ExecQueueFull    ErrorCode = 13100
	ExecSystemError  ErrorCode = 13101
	ToolchainMissing ErrorCode = 13102
)

// errorMessages maps error codes to their default English messages
var errorMessages = map[ErrorCode]string{
	// System & Common
	Success:             "Success",
	InternalServerError: "Internal server error",
	InvalidParams:       "Invalid parameters",
	NotFound:            "Resource not found",
	Unauthorized:        "Unauthorized access",
	Forbidden:           "Access forbidden",
	TooManyRequests:     "Too many requests, please try again later",
	ServiceUnavailable:  "Service temporarily unavailable",

	// Validation
	ValidationFailed: "Validation failed",

	// Auth
	UserNotFound:          "User not found",
	UserAlreadyExists:     "Username is already taken",
	InvalidCredentials:    "Incorrect username or password",
	TokenExpired:          "Token has expired",
	TokenInvalid:          "Token is invalid",
	TokenGenerationFailed: "Failed to generate token",
	NotLoggedIn:           "You must be logged in",

	// Files
	FileNotFound:      "File not found",
	FileUploadFailed:  "File upload failed",
	FileTooLarge:      "File exceeds the size limit",
	UnsafeFilename:    "Filename is not allowed",
	FileListingFailed: "Failed to list files",

	// Execution
	LanguageNotSupported: "Programming language not supported",
	SourceTooLarge:       "Source file exceeds the size limit",
	ExecQueueFull:        "Execution queue is full, please try again later",
	ExecSystemError:      "Execution system error",
	ToolchainMissing:     "Required toolchain binary is not installed",
}

// Message returns the default message for the error code
func (c ErrorCode) Message() string {
	if msg, ok := errorMessages[c]; ok {
		return msg
	}
	return "Unknown error"
}

// HTTPStatus returns the recommended HTTP status code for the error code
func (c ErrorCode) HTTPStatus() int {
	switch {
	case c == Success:
		return 200
	case c >= 11000 && c < 11100: // Authentication errors
		return 401
	case c == Unauthorized:
		return 401
	case c == Forbidden:
		return 403
	case c == NotFound, c == FileNotFound:
		return 404
	case c == TooManyRequests, c == ExecQueueFull:
		return 429
	case c == FileTooLarge, c == SourceTooLarge:
		return 413
	case c == ServiceUnavailable:
		return 503
	case c >= 10300 && c < 10400: // Validation errors
		return 400
	case c == InvalidParams, c == LanguageNotSupported, c == UnsafeFilename:
		return 400
	default:
		return 500
	}
}
