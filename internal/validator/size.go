package validator

const (
	// Upper bound on a flag in bytes
	MaxFlagLength = 256
	// Upper bound on a problem attachment in bytes
	MaxAttachmentSize int64 = 100 << 20
)

// ensures an uploaded problem attachment is non empty and below the attachment limit
func ValidateAttachmentSize(size int64) bool {
	return size > 0 && size <= MaxAttachmentSize
}
