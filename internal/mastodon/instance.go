package mastodon

// Posting limits advertised to clients. Bluesky posts carry at most 300
// characters and four images.
const (
	MaxCharacters       = 300
	MaxMediaAttachments = 4
)

// Instance is the v1 instance metadata object.
type Instance struct {
	URI              string            `json:"uri"`
	Title            string            `json:"title"`
	ShortDescription string            `json:"short_description"`
	Description      string            `json:"description"`
	Email            string            `json:"email"`
	Version          string            `json:"version"`
	Languages        []string          `json:"languages"`
	Registrations    bool              `json:"registrations"`
	ApprovalRequired bool              `json:"approval_required"`
	InvitesEnabled   bool              `json:"invites_enabled"`
	Configuration    InstanceConfig    `json:"configuration"`
	URLs             map[string]string `json:"urls"`
	Stats            InstanceStats     `json:"stats"`
	Thumbnail        *string           `json:"thumbnail"`
	ContactAccount   *Account          `json:"contact_account"`
}

// InstanceV2 is the v2 instance metadata object.
type InstanceV2 struct {
	Domain        string            `json:"domain"`
	Title         string            `json:"title"`
	Version       string            `json:"version"`
	SourceURL     string            `json:"source_url"`
	Description   string            `json:"description"`
	Usage         InstanceV2Usage   `json:"usage"`
	Thumbnail     InstanceV2Thumb   `json:"thumbnail"`
	Languages     []string          `json:"languages"`
	Configuration InstanceConfig    `json:"configuration"`
	Registrations InstanceV2Regs    `json:"registrations"`
	Contact       InstanceV2Contact `json:"contact"`
}

// InstanceConfig carries the posting limits both API versions expose.
type InstanceConfig struct {
	Statuses         StatusesConfig         `json:"statuses"`
	MediaAttachments MediaAttachmentsConfig `json:"media_attachments"`
	Polls            PollsConfig            `json:"polls"`
}

// StatusesConfig advertises status composition limits.
type StatusesConfig struct {
	MaxCharacters            int `json:"max_characters"`
	MaxMediaAttachments      int `json:"max_media_attachments"`
	CharactersReservedPerURL int `json:"characters_reserved_per_url"`
}

// MediaAttachmentsConfig advertises media upload limits.
type MediaAttachmentsConfig struct {
	SupportedMimeTypes  []string `json:"supported_mime_types"`
	ImageSizeLimit      int      `json:"image_size_limit"`
	ImageMatrixLimit    int      `json:"image_matrix_limit"`
	VideoSizeLimit      int      `json:"video_size_limit"`
	VideoFrameRateLimit int      `json:"video_frame_rate_limit"`
	VideoMatrixLimit    int      `json:"video_matrix_limit"`
}

// PollsConfig advertises poll limits; polls are unsupported, so zeroes.
type PollsConfig struct {
	MaxOptions             int `json:"max_options"`
	MaxCharactersPerOption int `json:"max_characters_per_option"`
	MinExpiration          int `json:"min_expiration"`
	MaxExpiration          int `json:"max_expiration"`
}

// InstanceStats is the v1 usage block.
type InstanceStats struct {
	UserCount   int64 `json:"user_count"`
	StatusCount int64 `json:"status_count"`
	DomainCount int64 `json:"domain_count"`
}

// InstanceV2Usage is the v2 usage block.
type InstanceV2Usage struct {
	Users struct {
		ActiveMonth int64 `json:"active_month"`
	} `json:"users"`
}

// InstanceV2Thumb is the v2 thumbnail block.
type InstanceV2Thumb struct {
	URL string `json:"url"`
}

// InstanceV2Regs is the v2 registrations block.
type InstanceV2Regs struct {
	Enabled          bool    `json:"enabled"`
	ApprovalRequired bool    `json:"approval_required"`
	Message          *string `json:"message"`
}

// InstanceV2Contact is the v2 contact block.
type InstanceV2Contact struct {
	Email   string   `json:"email"`
	Account *Account `json:"account"`
}
