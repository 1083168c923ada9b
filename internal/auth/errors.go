package auth

import "errors"

// Error is an authentication failure with a stable code and the message
// shown to the shop owner.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

var (
	ErrInvalidEmail      = &Error{Code: "auth/invalid-email", Message: "Format email tidak valid."}
	ErrUserDisabled      = &Error{Code: "auth/user-disabled", Message: "Akun ini telah dinonaktifkan."}
	ErrInvalidCredential = &Error{Code: "auth/invalid-credential", Message: "Email atau password salah."}
	ErrEmailInUse        = &Error{Code: "auth/email-already-in-use", Message: "Email sudah terdaftar. Coba masuk atau gunakan email lain."}
	ErrWeakPassword      = &Error{Code: "auth/weak-password", Message: "Password minimal 6 karakter."}
	ErrMissingFields     = &Error{Code: "auth/missing-fields", Message: "Semua field wajib diisi!"}
	ErrNetwork           = &Error{Code: "auth/network-request-failed", Message: "Tidak dapat terhubung ke server. Periksa koneksi internet Anda."}
	ErrInvalidToken      = &Error{Code: "auth/invalid-token", Message: "Sesi tidak valid. Silakan masuk kembali."}
)

var ErrUserNotFound = errors.New("user not found")

const genericMessage = "Terjadi kesalahan. Coba lagi sebentar."

// Message maps any error to the text shown to the user. Known auth errors
// keep their own message; everything else gets the generic one.
func Message(err error) string {
	var authErr *Error
	if errors.As(err, &authErr) {
		return authErr.Message
	}
	return genericMessage
}

// Code returns the auth error code, or "" for errors outside the set.
func Code(err error) string {
	var authErr *Error
	if errors.As(err, &authErr) {
		return authErr.Code
	}
	return ""
}
