package models

import "time"

// TokenPair — пара токенов, выдаваемая при логине и ротации.
//
// Описание:
//   - AccessToken — короткоживущий JWT для доступа к API, индивидуально не отзывается;
//   - RefreshToken — долгоживущий JWT c jti; при каждом использовании проверяется
//     по множеству отозванных и отзывается ротацией (одноразовый);
//   - AccessExpiresAt — момент истечения access-токена (UTC).
type TokenPair struct {
	AccessToken     string
	RefreshToken    string
	AccessExpiresAt time.Time
}
