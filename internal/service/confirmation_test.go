package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pribylovaa/go-blogger-auth/internal/storage"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestConfirmEmail_OK(t *testing.T) {
	t.Parallel()

	svc, st, _, _ := newSvc(t)
	ctx := context.Background()

	user := testUser(t, "Abcdef1!")
	code := user.Confirmation.Code

	st.EXPECT().UserByConfirmationCode(gomock.Any(), code).Return(user, nil)
	st.EXPECT().ConfirmEmail(gomock.Any(), user.ID, code).Return(true, nil)

	require.NoError(t, svc.ConfirmEmail(ctx, code))
}

func TestConfirmEmail_UnknownCode(t *testing.T) {
	t.Parallel()

	svc, st, _, _ := newSvc(t)

	st.EXPECT().UserByConfirmationCode(gomock.Any(), "no-such-code").
		Return(nil, storage.ErrNotFound)

	err := svc.ConfirmEmail(context.Background(), "no-such-code")
	require.ErrorIs(t, err, ErrCodeNotFound)
}

func TestConfirmEmail_Expired(t *testing.T) {
	t.Parallel()

	svc, st, _, _ := newSvc(t)

	user := testUser(t, "Abcdef1!")
	code := user.Confirmation.Code

	// Часы сервиса переводятся за срок действия кода: UPDATE в хранилище
	// не должен вызываться вовсе.
	svc.now = func() time.Time { return user.Confirmation.ExpiresAt.Add(time.Second) }

	st.EXPECT().UserByConfirmationCode(gomock.Any(), code).Return(user, nil)

	err := svc.ConfirmEmail(context.Background(), code)
	require.ErrorIs(t, err, ErrCodeInvalidOrExpired)
}

func TestConfirmEmail_AlreadyConfirmed(t *testing.T) {
	t.Parallel()

	svc, st, _, _ := newSvc(t)

	user := testUser(t, "Abcdef1!")
	user.Confirmation.Confirmed = true
	code := user.Confirmation.Code

	st.EXPECT().UserByConfirmationCode(gomock.Any(), code).Return(user, nil)

	err := svc.ConfirmEmail(context.Background(), code)
	require.ErrorIs(t, err, ErrCodeInvalidOrExpired)
}

func TestConfirmEmail_LostRace(t *testing.T) {
	t.Parallel()

	svc, st, _, _ := newSvc(t)

	user := testUser(t, "Abcdef1!")
	code := user.Confirmation.Code

	// Между чтением и UPDATE код успели использовать или заменить.
	st.EXPECT().UserByConfirmationCode(gomock.Any(), code).Return(user, nil)
	st.EXPECT().ConfirmEmail(gomock.Any(), user.ID, code).Return(false, nil)

	err := svc.ConfirmEmail(context.Background(), code)
	require.ErrorIs(t, err, ErrCodeInvalidOrExpired)
}

func TestConfirmEmail_StorageError_Propagated(t *testing.T) {
	t.Parallel()

	svc, st, _, _ := newSvc(t)

	dbErr := errors.New("db down")
	st.EXPECT().UserByConfirmationCode(gomock.Any(), gomock.Any()).Return(nil, dbErr)

	err := svc.ConfirmEmail(context.Background(), "some-code")
	require.ErrorIs(t, err, dbErr)
}

func TestResendConfirmationCode_OK(t *testing.T) {
	t.Parallel()

	svc, st, _, snd := newSvc(t)
	ctx := context.Background()

	user := testUser(t, "Abcdef1!")
	oldCode := user.Confirmation.Code

	var newCode string
	st.EXPECT().UserByLoginOrEmail(gomock.Any(), user.Email).Return(user, nil)
	st.EXPECT().ReplaceConfirmationCode(gomock.Any(), user.ID, gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, code string, expiresAt time.Time) (bool, error) {
			newCode = code
			require.NotEqual(t, oldCode, code)
			require.WithinDuration(t, time.Now().Add(svc.cfg.ConfirmationTTL), expiresAt, 2*time.Second)
			return true, nil
		})
	snd.EXPECT().SendConfirmationCode(gomock.Any(), user.Email, gomock.Any()).
		DoAndReturn(func(_ context.Context, _, code string) error {
			// Письмо уходит ровно одно и именно с новым кодом.
			require.Equal(t, newCode, code)
			return nil
		})

	require.NoError(t, svc.ResendConfirmationCode(ctx, user.Email))
}

func TestResendConfirmationCode_UnknownEmail(t *testing.T) {
	t.Parallel()

	svc, st, _, _ := newSvc(t)

	st.EXPECT().UserByLoginOrEmail(gomock.Any(), "ghost@example.com").
		Return(nil, storage.ErrNotFound)

	err := svc.ResendConfirmationCode(context.Background(), "ghost@example.com")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestResendConfirmationCode_AlreadyConfirmed(t *testing.T) {
	t.Parallel()

	svc, st, _, _ := newSvc(t)

	user := testUser(t, "Abcdef1!")
	user.Confirmation.Confirmed = true

	// Для подтверждённого адреса код не меняется и письмо не отправляется.
	st.EXPECT().UserByLoginOrEmail(gomock.Any(), user.Email).Return(user, nil)

	err := svc.ResendConfirmationCode(context.Background(), user.Email)
	require.ErrorIs(t, err, ErrAlreadyConfirmed)
}

func TestResendConfirmationCode_RaceWithConfirm(t *testing.T) {
	t.Parallel()

	svc, st, _, _ := newSvc(t)

	user := testUser(t, "Abcdef1!")

	st.EXPECT().UserByLoginOrEmail(gomock.Any(), user.Email).Return(user, nil)
	st.EXPECT().ReplaceConfirmationCode(gomock.Any(), user.ID, gomock.Any(), gomock.Any()).
		Return(false, nil)

	err := svc.ResendConfirmationCode(context.Background(), user.Email)
	require.ErrorIs(t, err, ErrAlreadyConfirmed)
}

func TestResendConfirmationCode_EmailFailure_StillOK(t *testing.T) {
	t.Parallel()

	svc, st, _, snd := newSvc(t)

	user := testUser(t, "Abcdef1!")

	st.EXPECT().UserByLoginOrEmail(gomock.Any(), user.Email).Return(user, nil)
	st.EXPECT().ReplaceConfirmationCode(gomock.Any(), user.ID, gomock.Any(), gomock.Any()).
		Return(true, nil)
	snd.EXPECT().SendConfirmationCode(gomock.Any(), user.Email, gomock.Any()).
		Return(errors.New("smtp down"))

	require.NoError(t, svc.ResendConfirmationCode(context.Background(), user.Email))
}
