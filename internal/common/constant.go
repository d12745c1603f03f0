package common

const (
	// SessionCookieName carries the signed session token.
	SessionCookieName = "token"

	// FileIDHeaderName and ViewIndexHeaderName expose delivery metadata to the
	// plotting client so it can fill the next submission without another call.
	FileIDHeaderName    = "file_id"
	ViewIndexHeaderName = "view_index"

	// NextTokenHeaderName carries a tutorial continuation token.
	NextTokenHeaderName = "X-Next-Token"

	// RequestIDHeaderName is echoed on every response.
	RequestIDHeaderName = "X-Request-Id"
)
