package telegram

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	app "xray-assistant/internal/application"
	"xray-assistant/internal/domain/entity"
	"xray-assistant/internal/infrastructure/model"
	"xray-assistant/internal/infrastructure/storage"
	"xray-assistant/internal/infrastructure/vision"
)

const answer = `Subjective:
Pain in lower left molar.
Objective:
FINDING: Periapical lesion
LOCATION: [100,200,300,400]
Assessment:
Chronic apical periodontitis.
Plan:
Root canal treatment.`

type fakeAPI struct {
	mu      sync.Mutex
	sent    []tgbotapi.Chattable
	fileURL string
	updates chan tgbotapi.Update
	stopped bool
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) GetFileDirectURL(fileID string) (string, error) {
	return f.fileURL + "/" + fileID, nil
}

func (f *fakeAPI) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func (f *fakeAPI) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m.Text)
		}
	}
	return out
}

func (f *fakeAPI) photos() []tgbotapi.PhotoConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.PhotoConfig
	for _, c := range f.sent {
		if p, ok := c.(tgbotapi.PhotoConfig); ok {
			out = append(out, p)
		}
	}
	return out
}

type fixture struct {
	api   *fakeAPI
	bot   *Bot
	users *app.UserService
	fs    afero.Fs
}

func newFixture(t *testing.T, models ...string) fixture {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 100, 100))))
	files := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(buf.Bytes())
	}))
	t.Cleanup(files.Close)

	if len(models) == 0 {
		models = []string{answer, "Keep an eye on it."}
	}

	fs := afero.NewMemMapFs()
	images := storage.NewFileImageStore(fs, "uploads")
	users := app.NewUserService(storage.NewMemoryUserRepository())
	analysis := app.NewAnalysisService(
		storage.NewMemoryConversationRepository(),
		model.NewScriptedModel(models...),
		vision.NewAnnotator(vision.Options{Pick: func(int) int { return 0 }}),
		images,
		app.Timeouts{},
	)

	api := &fakeAPI{fileURL: files.URL}
	return fixture{api: api, bot: newBot(api, users, analysis, images), users: users, fs: fs}
}

func command(chatID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: chatID},
		Chat:      &tgbotapi.Chat{ID: chatID},
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}},
	}
}

func text(chatID int64, s string) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 2,
		From:      &tgbotapi.User{ID: chatID},
		Chat:      &tgbotapi.Chat{ID: chatID},
		Text:      s,
	}
}

func photo(chatID int64) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 3,
		From:      &tgbotapi.User{ID: chatID},
		Chat:      &tgbotapi.Chat{ID: chatID},
		Photo: []tgbotapi.PhotoSize{
			{FileID: "small", Width: 90, Height: 90},
			{FileID: "large", Width: 1000, Height: 1000},
		},
	}
}

func TestCommands(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.bot.handleMessage(ctx, command(1, "/check"))
	user, err := f.users.Get(ctx, 1, 1)
	require.NoError(t, err)
	require.Equal(t, entity.StateAwaitingXray, user.State)

	f.bot.handleMessage(ctx, command(1, "/cancel"))
	user, err = f.users.Get(ctx, 1, 1)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, user.State)

	f.bot.handleMessage(ctx, command(1, "/new"))
	user, err = f.users.Get(ctx, 1, 1)
	require.NoError(t, err)
	require.NotEqual(t, "tg-1", user.ConversationID)

	f.bot.handleMessage(ctx, command(1, "/unknown"))

	require.Equal(t, []string{msgAwaitingXray, msgCancelled, msgNewConversation, msgUnknownCommand}, f.api.texts())
}

func TestPhoto_AnalyzeThenChat(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.bot.handleMessage(ctx, photo(7))

	photos := f.api.photos()
	require.Len(t, photos, 1)
	require.Contains(t, photos[0].Caption, "1. Periapical lesion")

	texts := f.api.texts()
	require.Equal(t, msgProcessing, texts[0])
	require.Contains(t, texts[1], "Assessment:\nChronic apical periodontitis.")

	ok, err := afero.Exists(f.fs, "uploads/annotated_tg_7_3.jpg")
	require.NoError(t, err)
	require.True(t, ok)

	user, err := f.users.Get(ctx, 7, 7)
	require.NoError(t, err)
	require.Equal(t, entity.StateDiscussing, user.State)

	f.bot.handleMessage(ctx, text(7, "Is it serious?"))
	texts = f.api.texts()
	require.Equal(t, "Keep an eye on it.", texts[len(texts)-1])
}

func TestText_BeforeAnalysis(t *testing.T) {
	f := newFixture(t)

	f.bot.handleMessage(context.Background(), text(3, "hello"))

	require.Equal(t, []string{msgSendXray}, f.api.texts())
}

func TestDocument(t *testing.T) {
	tests := []struct {
		name     string
		doc      tgbotapi.Document
		analyzed bool
	}{
		{"image file", tgbotapi.Document{FileID: "d1", FileName: "scan.png", MimeType: "image/png"}, true},
		{"pdf", tgbotapi.Document{FileID: "d2", FileName: "scan.pdf", MimeType: "application/pdf"}, false},
		{"image without extension", tgbotapi.Document{FileID: "d3", FileName: "scan", MimeType: "image/png"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			doc := tt.doc
			msg := &tgbotapi.Message{
				MessageID: 4,
				From:      &tgbotapi.User{ID: 5},
				Chat:      &tgbotapi.Chat{ID: 5},
				Document:  &doc,
			}

			f.bot.handleMessage(context.Background(), msg)

			if tt.analyzed {
				require.Len(t, f.api.photos(), 1)
				return
			}
			require.Empty(t, f.api.photos())
			require.Equal(t, []string{msgUnsupportedFile}, f.api.texts())
		})
	}
}

func TestPhoto_UnparseableAnswer(t *testing.T) {
	f := newFixture(t, "I cannot read this image.")

	f.bot.handleMessage(context.Background(), photo(9))

	photos := f.api.photos()
	require.Len(t, photos, 1)
	require.Equal(t, "✅ Находок с координатами нет", photos[0].Caption)
	texts := f.api.texts()
	require.Equal(t, "Модель не вернула разделов SOAP.", texts[len(texts)-1])
}

func TestRun_StopsOnCancel(t *testing.T) {
	f := newFixture(t)
	f.api.updates = make(chan tgbotapi.Update, 1)
	f.api.updates <- tgbotapi.Update{Message: command(1, "/help")}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.bot.Run(ctx) }()

	require.Eventually(t, func() bool { return len(f.api.texts()) == 1 }, time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("bot did not stop")
	}
	require.True(t, f.api.stopped)
	require.Equal(t, msgHelp, f.api.texts()[0])
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "abc", truncate("abc", 5))
	require.Equal(t, "ab…", truncate("abcdef", 3))
}
