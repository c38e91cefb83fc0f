package model

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"xray-assistant/internal/domain/entity"
	"xray-assistant/internal/domain/port"
)

// CachingModel кэширует ответы модели по содержимому истории
// и схлопывает одновременные одинаковые запросы.
type CachingModel struct {
	next  port.ChatModel
	cache *cache.Cache
	group singleflight.Group
}

// NewCachingModel оборачивает модель кэшем с временем жизни ttl.
// При ttl <= 0 возвращает next без изменений.
func NewCachingModel(next port.ChatModel, ttl time.Duration) port.ChatModel {
	if ttl <= 0 {
		return next
	}
	return &CachingModel{
		next:  next,
		cache: cache.New(ttl, 2*ttl),
	}
}

// Complete возвращает кэшированный ответ или обращается к модели
func (m *CachingModel) Complete(ctx context.Context, history []entity.Turn) (string, error) {
	key := historyKey(history)
	if v, ok := m.cache.Get(key); ok {
		return v.(string), nil
	}

	ch := m.group.DoChan(key, func() (interface{}, error) {
		return m.complete(ctx, key, history)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			// Общий запрос оборвался по контексту другого вызывающего: свой контекст ещё жив
			if isContextErr(res.Err) && ctx.Err() == nil {
				return m.complete(ctx, key, history)
			}
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (m *CachingModel) complete(ctx context.Context, key string, history []entity.Turn) (string, error) {
	text, err := m.next.Complete(ctx, history)
	if err != nil {
		return "", err
	}
	m.cache.Set(key, text, cache.DefaultExpiration)
	return text, nil
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// historyKey хэш ролей, текстов и вложений истории
func historyKey(history []entity.Turn) string {
	h := sha256.New()
	var n [8]byte
	write := func(b []byte) {
		binary.BigEndian.PutUint64(n[:], uint64(len(b)))
		h.Write(n[:])
		h.Write(b)
	}
	for _, turn := range history {
		write([]byte(turn.Role))
		write([]byte(turn.Text))
		if turn.Image != nil {
			write([]byte(turn.Image.MIMEType))
			write(turn.Image.Data)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Проверка реализации интерфейса
var _ port.ChatModel = (*CachingModel)(nil)
