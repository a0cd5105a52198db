package ercx

import (
	"math/rand"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AvaProtocol/ercx-bot/model"
)

func result(level string, r int) model.PropertyResult {
	return model.PropertyResult{Test: model.TestInfo{Level: level}, Result: r}
}

func TestSummarizeBasicLevel(t *testing.T) {
	out := Summarize([]model.PropertyResult{
		result("basic", 1),
		result("basic", 0),
	})

	assert.Equal(t, "Basic 1/2\n", out)
}

func TestSummarizeEmpty(t *testing.T) {
	assert.Equal(t, "", Summarize(nil))
	assert.Equal(t, "", Summarize([]model.PropertyResult{}))
}

func TestSummarizeKeepsDiscoveryOrder(t *testing.T) {
	out := Summarize([]model.PropertyResult{
		result("minimal", 1),
		result("basic", 1),
		result("minimal", 1),
		result("ADVANCED", 0),
		result("basic", -1),
	})

	assert.Equal(t, "Minimal 2/2\nBasic 1/1\nAdvanced 0/1\n", out)
}

func TestSummarizeExcludesNotApplicable(t *testing.T) {
	out := Summarize([]model.PropertyResult{
		result("fuzzy", -1),
		result("fuzzy", -1),
	})

	assert.Equal(t, "Fuzzy 0/0\n", out)
}

func TestSummarizeAllPassing(t *testing.T) {
	for _, n := range []int{1, 5, 42} {
		results := make([]model.PropertyResult, n)
		for i := range results {
			results[i] = result("basic", 1)
		}
		assert.Equal(t, "Basic "+strconv.Itoa(n)+"/"+strconv.Itoa(n)+"\n", Summarize(results))
	}
}

func TestSummarizeSuccessNeverExceedsTotal(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	levels := []string{"minimal", "basic", "advanced", "fuzzy"}

	for i := 0; i < 200; i++ {
		results := make([]model.PropertyResult, 1+r.Intn(30))
		for j := range results {
			results[j] = result(levels[r.Intn(len(levels))], r.Intn(3)-1)
		}

		lines := strings.Split(strings.TrimSuffix(Summarize(results), "\n"), "\n")
		for _, line := range lines {
			fields := strings.Fields(line)
			require.Len(t, fields, 2, line)

			parts := strings.Split(fields[1], "/")
			require.Len(t, parts, 2, line)

			success, err := strconv.Atoi(parts[0])
			require.NoError(t, err)
			total, err := strconv.Atoi(parts[1])
			require.NoError(t, err)

			assert.LessOrEqual(t, success, total, line)
		}
	}
}

func TestPassRate(t *testing.T) {
	assert.Equal(t, "50", PassRate([]model.PropertyResult{result("basic", 1), result("basic", 0)}).String())
	assert.Equal(t, "66.67", PassRate([]model.PropertyResult{
		result("basic", 1), result("basic", 1), result("advanced", 0), result("advanced", -1),
	}).String())
	assert.True(t, PassRate(nil).IsZero())
}

func TestReportURL(t *testing.T) {
	q := model.ReportQuery{Standard: model.ERC20, Network: model.Sepolia, Address: "0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"}

	assert.Equal(t,
		"https://ercx.runtimeverification.com/token/0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA?network=11155111",
		ReportURL("https://ercx.runtimeverification.com/", q),
	)
}
