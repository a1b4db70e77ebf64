package models

// CloudToken is the persisted upstream session. ExpireAt is server epoch
// seconds; a zero value means no token has been stored yet.
type CloudToken struct {
	UID      string `json:"uid"`
	Token    string `json:"token"`
	ExpireAt int64  `json:"expire_at"`
}
