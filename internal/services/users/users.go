// Package users хранит профили пользователей (язык сообщений) в хранилище ключ-значение.
//
// Профиль, который не удаётся прочитать, считается отсутствующим и создаётся заново.
package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/magabrotheeeer/kvira-space/internal/lib/sl"
	"github.com/magabrotheeeer/kvira-space/internal/models"
)

// UsersSetKey множество id всех известных пользователей.
const UsersSetKey = "users"

var (
	// ErrInvalidLanguage язык не поддерживается.
	ErrInvalidLanguage = errors.New("invalid language")
	// ErrUserNotFound профиля нет.
	ErrUserNotFound = errors.New("user not found")
)

// Store хранилище ключ-значение.
type Store interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	AddToSet(ctx context.Context, key, member string) error
}

// Directory каталог профилей.
type Directory struct {
	store Store
	log   *slog.Logger
}

// NewDirectory создает Directory.
func NewDirectory(store Store, log *slog.Logger) *Directory {
	return &Directory{
		store: store,
		log:   log,
	}
}

func profileKey(userID int64) string {
	return fmt.Sprintf("user:%d", userID)
}

// GetOrCreate возвращает профиль userID, создавая его с языком defaultLang при первом обращении.
// username обновляется, если пользователь сменил его в мессенджере.
func (d *Directory) GetOrCreate(ctx context.Context, userID int64, username string, defaultLang models.Lang) (models.UserProfile, error) {
	const op = "users.GetOrCreate"

	profile, found, err := d.load(ctx, userID)
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("%s: %w", op, err)
	}
	if found {
		if username == "" || profile.Username == username {
			return profile, nil
		}
		profile.Username = username
		if err := d.store.Set(ctx, profileKey(userID), profile, 0); err != nil {
			return models.UserProfile{}, fmt.Errorf("%s: %w", op, err)
		}
		return profile, nil
	}

	if !defaultLang.Valid() {
		defaultLang = models.LangRus
	}
	profile = models.UserProfile{UserID: userID, Username: username, Lang: defaultLang}
	if err := d.store.Set(ctx, profileKey(userID), profile, 0); err != nil {
		return models.UserProfile{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := d.store.AddToSet(ctx, UsersSetKey, strconv.FormatInt(userID, 10)); err != nil {
		d.log.Warn("failed to register user id", sl.Op(op), slog.Int64("user_id", userID), sl.Err(err))
	}
	d.log.Info("user profile created", sl.Op(op), slog.Int64("user_id", userID))
	return profile, nil
}

// Get возвращает существующий профиль или ErrUserNotFound.
func (d *Directory) Get(ctx context.Context, userID int64) (models.UserProfile, error) {
	const op = "users.Get"
	profile, found, err := d.load(ctx, userID)
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return models.UserProfile{}, fmt.Errorf("%s: %d: %w", op, userID, ErrUserNotFound)
	}
	return profile, nil
}

// SetLanguage меняет язык пользователя.
func (d *Directory) SetLanguage(ctx context.Context, userID int64, lang models.Lang) (models.UserProfile, error) {
	const op = "users.SetLanguage"
	if !lang.Valid() {
		return models.UserProfile{}, fmt.Errorf("%s: %q: %w", op, string(lang), ErrInvalidLanguage)
	}

	profile, err := d.GetOrCreate(ctx, userID, "", lang)
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("%s: %w", op, err)
	}
	if profile.Lang == lang {
		return profile, nil
	}
	profile.Lang = lang
	if err := d.store.Set(ctx, profileKey(userID), profile, 0); err != nil {
		return models.UserProfile{}, fmt.Errorf("%s: %w", op, err)
	}
	return profile, nil
}

// ToggleLanguage переключает язык между английским и русским.
func (d *Directory) ToggleLanguage(ctx context.Context, userID int64) (models.UserProfile, error) {
	profile, err := d.Get(ctx, userID)
	if err != nil {
		return models.UserProfile{}, err
	}
	next := models.LangEng
	if profile.Lang == models.LangEng {
		next = models.LangRus
	}
	return d.SetLanguage(ctx, userID, next)
}

// load читает профиль. Повреждённая запись считается отсутствующей.
func (d *Directory) load(ctx context.Context, userID int64) (models.UserProfile, bool, error) {
	var profile models.UserProfile
	found, err := d.store.Get(ctx, profileKey(userID), &profile)
	if err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
			d.log.Warn("corrupted user profile, provisioning a new one",
				slog.Int64("user_id", userID), sl.Err(err))
			return models.UserProfile{}, false, nil
		}
		return models.UserProfile{}, false, err
	}
	if found && !profile.Lang.Valid() {
		d.log.Warn("user profile has unknown language, provisioning a new one", slog.Int64("user_id", userID))
		return models.UserProfile{}, false, nil
	}
	return profile, found, nil
}
