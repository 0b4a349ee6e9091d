package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/dwizi/addrwatch/internal/collect"
	"github.com/dwizi/addrwatch/internal/report"
)

const operatorID = int64(777)

type sentDocument struct {
	chatID   int64
	filename string
	data     []byte
}

type fakeCourier struct {
	texts     map[int64][]string
	documents []sentDocument
}

func newFakeCourier() *fakeCourier {
	return &fakeCourier{texts: make(map[int64][]string)}
}

func (f *fakeCourier) SendText(ctx context.Context, chatID int64, text string) error {
	f.texts[chatID] = append(f.texts[chatID], text)
	return nil
}

func (f *fakeCourier) SendDocument(ctx context.Context, chatID int64, filename string, data []byte) error {
	f.documents = append(f.documents, sentDocument{chatID: chatID, filename: filename, data: data})
	return nil
}

func newTestService(t *testing.T, blockBytes int) (*Service, *collect.Registry, *fakeCourier) {
	t.Helper()
	registry := collect.NewRegistry()
	builder := report.NewBuilder(nil, blockBytes)
	courier := newFakeCourier()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(registry, builder, courier, operatorID, logger), registry, courier
}

func TestWhoami(t *testing.T) {
	service, _, _ := newTestService(t, report.DefaultBlockBytes)
	out, err := service.HandleMessage(context.Background(), MessageInput{ChatID: 1, SenderID: 42, Text: "/whoami"})
	if err != nil {
		t.Fatal(err)
	}
	if !out.Handled || out.Reply != "Your user id: 42" {
		t.Fatalf("unexpected output: %+v", out)
	}
}

func TestWhoamiChannelPost(t *testing.T) {
	service, _, _ := newTestService(t, report.DefaultBlockBytes)
	out, err := service.HandleMessage(context.Background(), MessageInput{ChatID: 1, SenderID: 0, Text: "/whoami"})
	if err != nil {
		t.Fatal(err)
	}
	if !out.Handled || !strings.Contains(out.Reply, "channel post") {
		t.Fatalf("unexpected output: %+v", out)
	}
}

func TestHelpListsEveryCommand(t *testing.T) {
	service, _, _ := newTestService(t, report.DefaultBlockBytes)
	out, err := service.HandleMessage(context.Background(), MessageInput{ChatID: 1, SenderID: 42, Text: "/help"})
	if err != nil {
		t.Fatal(err)
	}
	for _, command := range SlashCommands() {
		if !strings.Contains(out.Reply, "/"+command.Name) {
			t.Fatalf("help missing /%s: %q", command.Name, out.Reply)
		}
	}
}

func TestWatchRequiresOperator(t *testing.T) {
	service, registry, _ := newTestService(t, report.DefaultBlockBytes)
	out, err := service.HandleMessage(context.Background(), MessageInput{ChatID: 5, SenderID: 42, Text: "/watch"})
	if err != nil {
		t.Fatal(err)
	}
	if !out.Handled || out.Reply != "" {
		t.Fatalf("non-operator should be silently dropped: %+v", out)
	}
	if registry.Snapshot(5).Watching {
		t.Fatal("watch flag set by non-operator")
	}
}

func TestWatchAndStopByOperator(t *testing.T) {
	service, registry, _ := newTestService(t, report.DefaultBlockBytes)
	ctx := context.Background()
	if _, err := service.HandleMessage(ctx, MessageInput{ChatID: 5, SenderID: operatorID, Text: "/watch"}); err != nil {
		t.Fatal(err)
	}
	if !registry.Snapshot(5).Watching {
		t.Fatal("watch not enabled")
	}
	if _, err := service.HandleMessage(ctx, MessageInput{ChatID: 5, SenderID: operatorID, Text: "/stop"}); err != nil {
		t.Fatal(err)
	}
	if registry.Snapshot(5).Watching {
		t.Fatal("watch not disabled")
	}
}

func TestChannelPostPassesOperatorGate(t *testing.T) {
	service, registry, _ := newTestService(t, report.DefaultBlockBytes)
	out, err := service.HandleMessage(context.Background(), MessageInput{ChatID: 9, SenderID: 0, Text: "/watch"})
	if err != nil {
		t.Fatal(err)
	}
	if !out.Handled || out.Reply == "" {
		t.Fatalf("channel post should be allowed: %+v", out)
	}
	if !registry.Snapshot(9).Watching {
		t.Fatal("watch not enabled from channel post")
	}
}

func TestStatusCounts(t *testing.T) {
	service, registry, _ := newTestService(t, report.DefaultBlockBytes)
	state := registry.Ensure(5)
	state.SetWatching(true)
	state.AddAddress("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed")
	state.LookupOrSchedule("done.eth")
	state.Settle("done.eth", "0xfb6916095ca1df60bb79ce92ce3ea74c37c5d359")
	state.LookupOrSchedule("missing.eth")
	state.Settle("missing.eth", "")
	state.LookupOrSchedule("slow.eth")

	out, err := service.HandleMessage(context.Background(), MessageInput{ChatID: 5, SenderID: operatorID, Text: "/status"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.Reply, "watching") {
		t.Fatalf("status missing watch state: %q", out.Reply)
	}
	if !strings.Contains(out.Reply, "Addresses: 1") {
		t.Fatalf("status missing address count: %q", out.Reply)
	}
	if !strings.Contains(out.Reply, "Names: 3 (1 resolved, 1 pending, 1 unresolved)") {
		t.Fatalf("status missing name breakdown: %q", out.Reply)
	}
}

func TestMakeListSendsBlocksToOperator(t *testing.T) {
	service, registry, courier := newTestService(t, report.DefaultBlockBytes)
	state := registry.Ensure(5)
	state.SetWatching(true)
	state.AddAddress("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed")

	out, err := service.HandleMessage(context.Background(), MessageInput{ChatID: 5, SenderID: operatorID, Text: "/makelist"})
	if err != nil {
		t.Fatal(err)
	}
	if !out.Handled || !strings.HasPrefix(out.Reply, "Report report-") || !strings.HasSuffix(out.Reply, "sent to the operator.") {
		t.Fatalf("unexpected output: %+v", out)
	}
	blocks := courier.texts[operatorID]
	if len(blocks) != 1 {
		t.Fatalf("expected one block DM'd to operator, got %d", len(blocks))
	}
	if !strings.Contains(blocks[0], "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed") {
		t.Fatalf("report missing address: %q", blocks[0])
	}
	if len(courier.documents) != 0 {
		t.Fatalf("short report should not use a document")
	}
}

func TestMakeListLargeReportGoesAsDocument(t *testing.T) {
	service, registry, courier := newTestService(t, 256)
	state := registry.Ensure(5)
	state.SetWatching(true)
	for i := 0; i < 60; i++ {
		state.AddAddress(fmt.Sprintf("0x5aaeb6053f3e94c9b9a09f33669435e7ef1b%04x", i))
	}

	if _, err := service.HandleMessage(context.Background(), MessageInput{ChatID: 5, SenderID: operatorID, Text: "/makelist"}); err != nil {
		t.Fatal(err)
	}
	if len(courier.texts[operatorID]) != 0 {
		t.Fatalf("large report should not go out as messages")
	}
	if len(courier.documents) != 1 {
		t.Fatalf("expected one document, got %d", len(courier.documents))
	}
	doc := courier.documents[0]
	if doc.chatID != operatorID {
		t.Fatalf("document sent to chat %d", doc.chatID)
	}
	if !strings.HasPrefix(doc.filename, "report-") || !strings.HasSuffix(doc.filename, ".txt") {
		t.Fatalf("unexpected filename: %q", doc.filename)
	}
	if strings.Contains(string(doc.data), "[part ") {
		t.Fatal("document should not carry part prefixes")
	}
}

var errInvalid = errors.New("send failed")

type failingCourier struct{}

func (failingCourier) SendText(ctx context.Context, chatID int64, text string) error {
	return errInvalid
}

func (failingCourier) SendDocument(ctx context.Context, chatID int64, filename string, data []byte) error {
	return errInvalid
}

func TestMakeListDeliveryFailureRepliesWithGuidance(t *testing.T) {
	registry := collect.NewRegistry()
	state := registry.Ensure(5)
	state.SetWatching(true)
	state.AddAddress("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := New(registry, report.NewBuilder(nil, report.DefaultBlockBytes), failingCourier{}, operatorID, logger)

	out, err := service.HandleMessage(context.Background(), MessageInput{ChatID: 5, SenderID: operatorID, Text: "/makelist"})
	if err != nil {
		t.Fatalf("delivery failure should not surface as a handler error: %v", err)
	}
	if !out.Handled || !strings.Contains(out.Reply, "could not be delivered") {
		t.Fatalf("unexpected output: %+v", out)
	}
}

func TestPlainTextAndUnknownCommandsNotHandled(t *testing.T) {
	service, _, _ := newTestService(t, report.DefaultBlockBytes)
	ctx := context.Background()
	for _, text := range []string{"hello there", "status report attached", "/frobnicate"} {
		out, err := service.HandleMessage(ctx, MessageInput{ChatID: 1, SenderID: operatorID, Text: text})
		if err != nil {
			t.Fatal(err)
		}
		if out.Handled {
			t.Fatalf("%q should not be handled", text)
		}
	}
}

func TestCommandWithBotMention(t *testing.T) {
	service, registry, _ := newTestService(t, report.DefaultBlockBytes)
	if _, err := service.HandleMessage(context.Background(), MessageInput{ChatID: 5, SenderID: operatorID, Text: "/watch@addrwatch_bot"}); err != nil {
		t.Fatal(err)
	}
	if !registry.Snapshot(5).Watching {
		t.Fatal("mention-suffixed command not dispatched")
	}
}
