package models

// Lang язык сообщений пользователя.
type Lang string

const (
	LangEng Lang = "eng"
	LangRus Lang = "rus"
)

// Valid сообщает, поддерживается ли язык.
func (l Lang) Valid() bool {
	return l == LangEng || l == LangRus
}

// UserProfile профиль пользователя в кэше.
type UserProfile struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Lang     Lang   `json:"lang"`
}

// TextCatalog тексты сообщений: messageId -> язык -> текст.
type TextCatalog map[string]map[Lang]string
