package upload

// Part pairs a part number with the ETag the store returned for it. On
// completion the caller declares these; the store performs the integrity
// check itself.
type Part struct {
	PartNumber int32  `json:"part_number"`
	ETag       string `json:"etag"`
}

// MultipartUpload identifies an open multipart session on the store. No local
// state accompanies it; the store is authoritative.
type MultipartUpload struct {
	UploadID string `json:"upload_id"`
	Key      string `json:"key"`
}

// PresignedUpload is the response for a single-part upload request.
type PresignedUpload struct {
	URL              string `json:"url"`
	Key              string `json:"key"`
	Method           string `json:"method"`
	ExpiresInSeconds int64  `json:"expires_in_seconds"`
	MaxSizeBytes     int64  `json:"max_size_bytes"`
}

// Completion reports a finalized multipart object.
type Completion struct {
	Key      string `json:"key"`
	Location string `json:"location,omitempty"`
	ETag     string `json:"etag,omitempty"`
}
