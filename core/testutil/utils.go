package testutil

import (
	"os"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/AvaProtocol/ercx-bot/metrics"
	"github.com/AvaProtocol/ercx-bot/model"
	"github.com/AvaProtocol/ercx-bot/pkg/logger"
	"github.com/AvaProtocol/ercx-bot/storage"
)

const TokenAddress = "0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// TestMustDB opens a badger storage in a temp dir that is removed with the test.
func TestMustDB(t testing.TB) storage.Storage {
	t.Helper()

	db, err := storage.NewWithPath(t.TempDir())
	if err != nil {
		t.Fatalf("cannot open test storage: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// PutKey writes value under key, failing the test on error.
func PutKey(t testing.TB, db storage.Storage, key, value string) {
	t.Helper()

	if _, err := db.Update([]byte(key), func([]byte) ([]byte, error) { return []byte(value), nil }); err != nil {
		t.Fatalf("cannot write %s: %v", key, err)
	}
}

// GetLogger returns a development logger when TEST_LOG is set and a no-op
// logger otherwise.
func GetLogger() logger.Logger {
	if os.Getenv("TEST_LOG") == "" {
		return &logger.Nop{}
	}

	log, err := logger.New("development")
	if err != nil {
		panic(err)
	}
	return log
}

// GetMetrics registers the bot metrics on a fresh registry.
func GetMetrics() *metrics.BotAndProcessMetrics {
	return metrics.NewBotMetrics(prometheus.NewRegistry())
}

func TestQuery() model.ReportQuery {
	return model.ReportQuery{
		Standard: model.ERC20,
		Address:  TokenAddress,
		Network:  model.Mainnet,
	}
}

// BasicResults is a report with a single "basic" level passing 2 of 3 properties.
func BasicResults() []model.PropertyResult {
	return []model.PropertyResult{
		{Test: model.TestInfo{Level: "basic"}, Result: 1},
		{Test: model.TestInfo{Level: "basic"}, Result: 0},
		{Test: model.TestInfo{Level: "basic"}, Result: 1},
	}
}
