package model

// CounselorInfo is the list-view projection returned by GET /counselors.
type CounselorInfo struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Counselor is the full record returned by GET /counselors/{id}. The
// platform user id is what the provisioner invites into the counselor-side
// channel; it never appears in anything shown to the end user.
type Counselor struct {
	ID             int64  `json:"id"`
	PlatformUserID int64  `json:"platform_user_id"`
	Name           string `json:"name"`
	Bio            string `json:"bio"`
}
