package services

import "errors"

// Taksonomi error untuk alur sesi meja dan submit order. Controller
// memetakan error ini ke kode HTTP; pesan cukup jelas untuk dipakai UI.
var (
	ErrTableUnavailable = errors.New("table is not available")
	ErrSessionNotFound  = errors.New("session token not found")
	ErrSessionExpired   = errors.New("session has expired")
	ErrAlreadySubmitted = errors.New("order already submitted for this session")
	ErrSessionClosed    = errors.New("session is closed")
	ErrInvalidCart      = errors.New("cart is empty or malformed")
	ErrUpstreamTimeout  = errors.New("upstream service timed out")
	ErrUpstreamFailure  = errors.New("upstream service failed")
)
