package telegram

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/mymmrac/telego"
	telegoapi "github.com/mymmrac/telego/telegoapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aatumaykin/postbot/internal/config"
	"github.com/aatumaykin/postbot/internal/constants"
	"github.com/aatumaykin/postbot/internal/conversation"
	"github.com/aatumaykin/postbot/internal/logger"
	"github.com/aatumaykin/postbot/internal/messages"
	"github.com/aatumaykin/postbot/internal/post"
)

type fakeHandler struct {
	mu     sync.Mutex
	events []conversation.Event
	reply  conversation.Reply
}

func (h *fakeHandler) Handle(_ context.Context, ev conversation.Event) conversation.Reply {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, ev)
	return h.reply
}

func (h *fakeHandler) received() []conversation.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]conversation.Event(nil), h.events...)
}

var testNow = time.Date(2026, 10, 18, 12, 30, 0, 0, time.UTC)

func newTestConnector(t *testing.T, cfg config.TelegramConfig) (*Connector, *MockBot, *fakeHandler) {
	t.Helper()
	if cfg.NotifyAttempts == 0 {
		cfg.NotifyAttempts = 1
	}
	loc, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)

	bot := new(MockBot)
	h := &fakeHandler{}
	c := New(cfg, Options{
		Bot:       bot,
		Location:  loc,
		ZoneLabel: "МСК",
		Now:       func() time.Time { return testNow },
	}, logger.Nop())
	c.SetHandler(h)
	return c, bot, h
}

func privateMessage(from int64, text string) *telego.Message {
	return &telego.Message{
		MessageID: 10,
		From:      &telego.User{ID: from, Username: "owner"},
		Chat:      telego.Chat{ID: from, Type: telego.ChatTypePrivate},
		Text:      text,
	}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		text string
		name string
		args string
		ok   bool
	}{
		{text: "/list", name: "list", ok: true},
		{text: "/Cancel 2", name: "cancel", args: "2", ok: true},
		{text: "/cancel@postbot  3 ", name: "cancel", args: "3", ok: true},
		{text: "/", ok: false},
		{text: "через 5 минут", ok: false},
		{text: "", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			name, args, ok := parseCommand(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.args, args)
		})
	}
}

func TestForwardOrigin(t *testing.T) {
	assert.Nil(t, forwardOrigin(nil))

	channel := forwardOrigin(&telego.MessageOriginChannel{
		Chat: telego.Chat{ID: -100123, Type: telego.ChatTypeChannel, Title: "News"},
	})
	require.NotNil(t, channel)
	assert.Equal(t, int64(-100123), channel.ChatID)
	assert.Equal(t, telego.ChatTypeChannel, channel.ChatType)
	assert.Equal(t, "News", channel.Title)

	group := forwardOrigin(&telego.MessageOriginChat{
		SenderChat: telego.Chat{ID: -100456, Type: telego.ChatTypeSupergroup},
	})
	require.NotNil(t, group)
	assert.Equal(t, int64(-100456), group.ChatID)

	user := forwardOrigin(&telego.MessageOriginUser{SenderUser: telego.User{ID: 5}})
	require.NotNil(t, user)
	assert.Equal(t, telego.ChatTypePrivate, user.ChatType)
	assert.Zero(t, user.ChatID)
}

func TestCallbackData(t *testing.T) {
	data := callbackData(constants.ButtonPublish, "abc-123")
	action, id, ok := parseCallbackData(data)
	require.True(t, ok)
	assert.Equal(t, constants.ButtonPublish, action)
	assert.Equal(t, "abc-123", id)

	for _, bad := range []string{"", "pub", "pub:", ":id"} {
		_, _, ok := parseCallbackData(bad)
		assert.False(t, ok, bad)
	}
}

func TestTaskKeyboard(t *testing.T) {
	kb := taskKeyboard("t1")
	require.Len(t, kb.InlineKeyboard, 2)
	require.Len(t, kb.InlineKeyboard[0], 1)
	require.Len(t, kb.InlineKeyboard[1], 2)

	assert.Equal(t, "pub:t1", kb.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "can:t1", kb.InlineKeyboard[1][0].CallbackData)
	assert.Equal(t, "chg:t1", kb.InlineKeyboard[1][1].CallbackData)
}

func TestMessageLink(t *testing.T) {
	assert.Equal(t, "https://t.me/c/123456/7", MessageLink("-100123456", 7))
	assert.Equal(t, "https://t.me/c/42/7", MessageLink("-42", 7))
	assert.Equal(t, "https://t.me/mychannel/9", MessageLink("@mychannel", 9))
}

func TestParseChat(t *testing.T) {
	id, err := parseChat("-100123")
	require.NoError(t, err)
	assert.Equal(t, int64(-100123), id.ID)

	named, err := parseChat("@news")
	require.NoError(t, err)
	assert.Equal(t, "@news", named.Username)

	_, err = parseChat("")
	assert.ErrorIs(t, err, errNoChannel)

	_, err = parseChat("news")
	assert.Error(t, err)
}

func TestHandleMessage_ContentWithKeyboard(t *testing.T) {
	c, bot, h := newTestConnector(t, config.TelegramConfig{})
	h.reply = conversation.Reply{Outcome: conversation.OutcomeScheduled, Text: "scheduled", Task: &post.Task{ID: "t1"}}

	bot.On("SendMessage", mock.Anything, mock.MatchedBy(func(p *telego.SendMessageParams) bool {
		kb, ok := p.ReplyMarkup.(*telego.InlineKeyboardMarkup)
		return p.ChatID.ID == 42 && p.Text == "scheduled" && ok && len(kb.InlineKeyboard) == 2
	})).Return(&telego.Message{MessageID: 11}, nil).Once()

	msg := privateMessage(42, "")
	msg.Caption = "photo caption"
	require.NoError(t, c.handleMessage(context.Background(), msg))

	events := h.received()
	require.Len(t, events, 1)
	content, ok := events[0].(conversation.Content)
	require.True(t, ok)
	assert.Equal(t, post.OwnerID(42), content.Owner)
	assert.Equal(t, post.PayloadRef{ChatID: 42, MessageID: 10}, content.Payload)
	assert.Equal(t, "photo caption", content.Caption)
	assert.Nil(t, content.Forward)
	bot.AssertExpectations(t)
}

func TestHandleMessage_Command(t *testing.T) {
	c, bot, h := newTestConnector(t, config.TelegramConfig{})
	h.reply = conversation.Reply{Outcome: conversation.OutcomeListed, Text: "queue"}

	bot.On("SendMessage", mock.Anything, mock.MatchedBy(func(p *telego.SendMessageParams) bool {
		return p.Text == "queue" && p.ReplyMarkup == nil
	})).Return(&telego.Message{}, nil).Once()

	require.NoError(t, c.handleMessage(context.Background(), privateMessage(42, "/cancel 2")))

	events := h.received()
	require.Len(t, events, 1)
	assert.Equal(t, conversation.Command{Owner: 42, Name: "cancel", Args: "2"}, events[0])
	bot.AssertExpectations(t)
}

func TestHandleMessage_Whitelist(t *testing.T) {
	c, bot, h := newTestConnector(t, config.TelegramConfig{AllowedUsers: []string{"1"}})

	bot.On("SendMessage", mock.Anything, mock.MatchedBy(func(p *telego.SendMessageParams) bool {
		return p.ChatID.ID == 2 && p.Text == constants.MsgAccessDenied
	})).Return(&telego.Message{}, nil).Once()

	require.NoError(t, c.handleMessage(context.Background(), privateMessage(2, "hello")))
	assert.Empty(t, h.received())
	bot.AssertExpectations(t)
}

func TestHandleMessage_NonPrivateIgnored(t *testing.T) {
	c, bot, h := newTestConnector(t, config.TelegramConfig{})

	msg := privateMessage(42, "hello")
	msg.Chat = telego.Chat{ID: -100, Type: telego.ChatTypeGroup}
	require.NoError(t, c.handleMessage(context.Background(), msg))

	assert.Empty(t, h.received())
	bot.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything)
}

func TestHandleMessage_SendFailure(t *testing.T) {
	c, bot, h := newTestConnector(t, config.TelegramConfig{})
	h.reply = conversation.Reply{Text: "x"}

	bot.On("SendMessage", mock.Anything, mock.Anything).
		Return(nil, &telegoapi.Error{ErrorCode: 400, Description: "Bad Request: chat not found"}).Once()

	err := c.handleMessage(context.Background(), privateMessage(42, "hello"))
	assert.Error(t, err)
	bot.AssertExpectations(t)
}

func callbackQuery(from int64, data string) *telego.CallbackQuery {
	return &telego.CallbackQuery{
		ID:   "q1",
		From: telego.User{ID: from},
		Data: data,
		Message: &telego.Message{
			MessageID: 5,
			Chat:      telego.Chat{ID: from, Type: telego.ChatTypePrivate},
			Text:      "Принято в работу!",
		},
	}
}

func TestHandleCallback_EditAppendsText(t *testing.T) {
	c, bot, h := newTestConnector(t, config.TelegramConfig{})
	h.reply = conversation.Reply{Outcome: conversation.OutcomeCancelled, Text: constants.MsgButtonCancelled, Edit: true}

	bot.On("AnswerCallbackQuery", mock.Anything, mock.MatchedBy(func(p *telego.AnswerCallbackQueryParams) bool {
		return p.CallbackQueryID == "q1" && p.Text == ""
	})).Return(nil).Once()
	bot.On("EditMessageText", mock.Anything, mock.MatchedBy(func(p *telego.EditMessageTextParams) bool {
		return p.ChatID.ID == 42 && p.MessageID == 5 &&
			p.Text == "Принято в работу!"+constants.MsgButtonCancelled && p.ReplyMarkup == nil
	})).Return(&telego.Message{}, nil).Once()

	require.NoError(t, c.handleCallback(context.Background(), callbackQuery(42, "can:t1")))

	events := h.received()
	require.Len(t, events, 1)
	assert.Equal(t, conversation.Button{Owner: 42, Action: "can", TaskID: "t1"}, events[0])
	bot.AssertExpectations(t)
}

func TestHandleCallback_RejectionShownAsAlert(t *testing.T) {
	c, bot, h := newTestConnector(t, config.TelegramConfig{})
	h.reply = conversation.Reply{Outcome: conversation.OutcomeRejected, Text: constants.MsgPublishBusy, Err: post.ErrTaskBusy}

	bot.On("AnswerCallbackQuery", mock.Anything, mock.MatchedBy(func(p *telego.AnswerCallbackQueryParams) bool {
		return p.Text == constants.MsgPublishBusy && p.ShowAlert
	})).Return(nil).Once()

	require.NoError(t, c.handleCallback(context.Background(), callbackQuery(42, "pub:t1")))
	bot.AssertNotCalled(t, "EditMessageText", mock.Anything, mock.Anything)
	bot.AssertExpectations(t)
}

func TestHandleCallback_BadData(t *testing.T) {
	c, bot, h := newTestConnector(t, config.TelegramConfig{})

	bot.On("AnswerCallbackQuery", mock.Anything, mock.MatchedBy(func(p *telego.AnswerCallbackQueryParams) bool {
		return p.Text == constants.MsgButtonUnknown
	})).Return(nil).Once()

	require.NoError(t, c.handleCallback(context.Background(), callbackQuery(42, "garbage")))
	assert.Empty(t, h.received())
	bot.AssertExpectations(t)
}

func TestHandleCallback_Whitelist(t *testing.T) {
	c, bot, h := newTestConnector(t, config.TelegramConfig{AllowedUsers: []string{"1"}})

	bot.On("AnswerCallbackQuery", mock.Anything, mock.MatchedBy(func(p *telego.AnswerCallbackQueryParams) bool {
		return p.Text == constants.MsgAccessDenied && p.ShowAlert
	})).Return(nil).Once()

	require.NoError(t, c.handleCallback(context.Background(), callbackQuery(2, "pub:t1")))
	assert.Empty(t, h.received())
	bot.AssertExpectations(t)
}

func TestDeliver_Success(t *testing.T) {
	c, bot, _ := newTestConnector(t, config.TelegramConfig{})

	bot.On("CopyMessage", mock.Anything, mock.MatchedBy(func(p *telego.CopyMessageParams) bool {
		return p.ChatID.ID == -100123 && p.FromChatID.ID == 42 && p.MessageID == 10
	})).Return(&telego.MessageID{MessageID: 77}, nil).Once()

	got, err := c.Deliver(context.Background(), post.PayloadRef{ChatID: 42, MessageID: 10}, "-100123")
	require.NoError(t, err)
	assert.Equal(t, post.Delivered{ChatID: "-100123", MessageID: 77, Link: "https://t.me/c/123/77"}, got)
	bot.AssertExpectations(t)
}

func TestDeliver_NoSendTimeout(t *testing.T) {
	c, bot, _ := newTestConnector(t, config.TelegramConfig{SendTimeoutSeconds: 1})

	bot.On("CopyMessage", mock.MatchedBy(func(ctx context.Context) bool {
		_, hasDeadline := ctx.Deadline()
		return !hasDeadline
	}), mock.Anything).Return(&telego.MessageID{MessageID: 78}, nil).Once()

	got, err := c.Deliver(context.Background(), post.PayloadRef{ChatID: 42, MessageID: 10}, "-100123")
	require.NoError(t, err)
	assert.Equal(t, 78, got.MessageID)
	bot.AssertExpectations(t)
}

func TestDeliver_ErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		reason post.DeliveryReason
	}{
		{
			name:   "forbidden",
			err:    &telegoapi.Error{ErrorCode: 403, Description: "Forbidden: bot is not a member of the channel chat"},
			reason: post.ReasonForbidden,
		},
		{
			name:   "payload gone",
			err:    &telegoapi.Error{ErrorCode: 400, Description: "Bad Request: message to copy not found"},
			reason: post.ReasonPayloadGone,
		},
		{
			name:   "chat not found",
			err:    &telegoapi.Error{ErrorCode: 400, Description: "Bad Request: chat not found"},
			reason: post.ReasonUnreachable,
		},
		{
			name:   "network",
			err:    &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")},
			reason: post.ReasonUnreachable,
		},
		{
			name:   "other",
			err:    errors.New("boom"),
			reason: post.ReasonUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, bot, _ := newTestConnector(t, config.TelegramConfig{})
			bot.On("CopyMessage", mock.Anything, mock.Anything).Return(nil, tt.err).Once()

			_, err := c.Deliver(context.Background(), post.PayloadRef{ChatID: 42, MessageID: 10}, "-100123")

			var derr *post.DeliveryError
			require.ErrorAs(t, err, &derr)
			assert.Equal(t, tt.reason, derr.Reason)
			assert.Equal(t, "-100123", derr.ChatID)
		})
	}
}

func TestDeliver_NoChannel(t *testing.T) {
	c, bot, _ := newTestConnector(t, config.TelegramConfig{})

	_, err := c.Deliver(context.Background(), post.PayloadRef{ChatID: 42, MessageID: 10}, "")

	var derr *post.DeliveryError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, post.ReasonUnreachable, derr.Reason)
	bot.AssertNotCalled(t, "CopyMessage", mock.Anything, mock.Anything)
}

func TestNotifications(t *testing.T) {
	c, bot, _ := newTestConnector(t, config.TelegramConfig{})
	task := post.Task{ID: "t1", Owner: 42, Preview: "hello"}

	published := messages.FormatPublished("https://t.me/c/1/2", testNow.In(c.loc), "МСК")
	bot.On("SendMessage", mock.Anything, mock.MatchedBy(func(p *telego.SendMessageParams) bool {
		return p.ChatID.ID == 42 && p.Text == published
	})).Return(&telego.Message{}, nil).Once()

	derr := &post.DeliveryError{Reason: post.ReasonForbidden, ChatID: "-1", Err: errors.New("403")}
	failed := messages.FormatPublishFailed("hello", derr)
	bot.On("SendMessage", mock.Anything, mock.MatchedBy(func(p *telego.SendMessageParams) bool {
		return p.ChatID.ID == 42 && p.Text == failed
	})).Return(&telego.Message{}, nil).Once()

	c.NotifyDelivered(context.Background(), task, post.Delivered{ChatID: "-1001", Link: "https://t.me/c/1/2"})
	c.NotifyFailed(context.Background(), task, derr)

	assert.Contains(t, published, "15:30 18.10.2026")
	bot.AssertExpectations(t)
}

func TestClassifyRetry(t *testing.T) {
	retryable, after := classifyRetry(&telegoapi.Error{
		ErrorCode:   429,
		Description: "Too Many Requests: retry after 3",
		Parameters:  &telegoapi.ResponseParameters{RetryAfter: 3},
	})
	assert.True(t, retryable)
	assert.Equal(t, 3*time.Second, after)

	retryable, _ = classifyRetry(&telegoapi.Error{ErrorCode: 400, Description: "Bad Request"})
	assert.False(t, retryable)

	retryable, after = classifyRetry(errors.New("connection reset by peer"))
	assert.True(t, retryable)
	assert.Zero(t, after)
}

func TestConnector_StartRoutesUpdates(t *testing.T) {
	c, bot, h := newTestConnector(t, config.TelegramConfig{LongPollTimeout: 1})
	h.reply = conversation.Reply{Text: "ok"}

	updates := make(chan telego.Update, 2)
	bot.On("SetMyCommands", mock.Anything, mock.Anything).Return(nil).Once()
	bot.On("UpdatesViaLongPolling", mock.Anything, mock.Anything).Return(updates, nil).Once()
	bot.On("SendMessage", mock.Anything, mock.Anything).Return(&telego.Message{}, nil)

	require.NoError(t, c.Start(context.Background()))

	updates <- telego.Update{UpdateID: 1, Message: privateMessage(42, "/list")}
	updates <- telego.Update{UpdateID: 2, Message: privateMessage(42, "/status")}

	require.Eventually(t, func() bool { return len(h.received()) == 2 }, 2*time.Second, 10*time.Millisecond)
	c.Stop()

	events := h.received()
	assert.Equal(t, "list", events[0].(conversation.Command).Name)
	assert.Equal(t, "status", events[1].(conversation.Command).Name)
}

func TestConnector_StartRequiresHandler(t *testing.T) {
	c := New(config.TelegramConfig{}, Options{Bot: new(MockBot)}, logger.Nop())
	assert.Error(t, c.Start(context.Background()))
}

func TestConnector_Connect(t *testing.T) {
	c, bot, _ := newTestConnector(t, config.TelegramConfig{})
	bot.On("GetMe", mock.Anything).Return(&telego.User{ID: 1, Username: "postbot"}, nil).Once()
	require.NoError(t, c.Connect(context.Background()))

	failing := new(MockBot)
	failing.On("GetMe", mock.Anything).Return(nil, errors.New("unauthorized")).Once()
	c2 := New(config.TelegramConfig{}, Options{Bot: failing}, logger.Nop())
	assert.Error(t, c2.Connect(context.Background()))
}
