package common

// VerificationCodeLength is the fixed width of an issued verification code.
const VerificationCodeLength = 6

// MaxCodeLength bounds the printed QR token, matching the qr_codes.code column.
const MaxCodeLength = 64

// MaxOwnerFieldLength bounds owner_name and owner_email.
const MaxOwnerFieldLength = 100
