package availability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mackay-backend/lib/scrapers/vghtpe"
	"mackay-backend/lib/testutil"
	"mackay-backend/services/availability/db"

	"github.com/stretchr/testify/require"
)

const watchedPage = `
<html><body>
<h1>門診時間表 醫師</h1>
<table class="table_list reg_return_table">
  <tr><th>診別</th><th>日期</th><th>星期</th><th>時段</th><th>醫師</th><th>診間</th><th>狀態</th></tr>
  <tr><td>一般門診</td><td>2025/12/17</td><td>三</td><td>上午</td><td>尤香玉</td><td>301</td><td>可掛號</td></tr>
  <tr><td>一般門診</td><td>2025/12/18</td><td>四</td><td>上午</td><td>尤香玉</td><td>301</td><td>已額滿</td></tr>
  <tr><td>一般門診</td><td>2025/12/22</td><td>一</td><td>夜間</td><td>周建成</td><td>305</td><td>可選擇</td></tr>
</table>
</body></html>`

type fakeNotifier struct {
	calls [][]vghtpe.Slot
	fail  bool
}

func (n *fakeNotifier) NotifyOpenSlots(ctx context.Context, slots []vghtpe.Slot, now time.Time) error {
	if n.fail {
		return context.DeadlineExceeded
	}
	n.calls = append(n.calls, slots)
	return nil
}

func setupService(t *testing.T, notifier Notifier, options Options) Service {
	res, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/availability",
		DbSchema: db.Schema,
	})
	t.Cleanup(cleanup)
	return NewService(res.DB, notifier, options)
}

func timetableServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/doc", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(watchedPage))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestCheckOnceAnnouncesThenSilences(t *testing.T) {
	server := timetableServer(t)
	notifier := &fakeNotifier{}
	service := setupService(t, notifier, Options{
		Doctors:          []WatchedDoctor{{Name: "尤香玉", Link: server.URL + "/doc"}},
		ReannounceWindow: time.Hour * 24,
	})

	now := time.Date(2025, 12, 1, 8, 0, 0, 0, time.UTC)
	ctx := context.Background()

	require.NoError(t, service.checkOnce(ctx, now))
	require.Len(t, notifier.calls, 1)
	require.Len(t, notifier.calls[0], 1)
	require.Equal(t, "2025/12/17", notifier.calls[0][0].Date)
	require.Equal(t, "尤香玉", notifier.calls[0][0].Doctor)

	// the same opening stays silent inside the window
	require.NoError(t, service.checkOnce(ctx, now.Add(time.Hour)))
	require.Len(t, notifier.calls, 1)

	// and is re-announced once the window has passed
	require.NoError(t, service.checkOnce(ctx, now.Add(time.Hour*25)))
	require.Len(t, notifier.calls, 2)
}

func TestCheckOnceWatchesAllDoctorsWhenUnnamed(t *testing.T) {
	server := timetableServer(t)
	notifier := &fakeNotifier{}
	service := setupService(t, notifier, Options{
		Doctors: []WatchedDoctor{{Link: server.URL + "/doc"}},
	})

	require.NoError(t, service.checkOnce(context.Background(), time.Now()))
	require.Len(t, notifier.calls, 1)
	require.Len(t, notifier.calls[0], 2)
}

func TestCheckOnceFailedNotificationKeepsSlotsEligible(t *testing.T) {
	server := timetableServer(t)
	notifier := &fakeNotifier{fail: true}
	service := setupService(t, notifier, Options{
		Doctors: []WatchedDoctor{{Name: "尤香玉", Link: server.URL + "/doc"}},
	})

	now := time.Date(2025, 12, 1, 8, 0, 0, 0, time.UTC)
	require.Error(t, service.checkOnce(context.Background(), now))

	// nothing was marked announced, so a later poll retries
	notifier.fail = false
	require.NoError(t, service.checkOnce(context.Background(), now.Add(time.Minute)))
	require.Len(t, notifier.calls, 1)
}

func TestCheckOnceSurvivesFetchFailure(t *testing.T) {
	server := timetableServer(t)
	notifier := &fakeNotifier{}
	service := setupService(t, notifier, Options{
		Doctors: []WatchedDoctor{
			{Name: "尤香玉", Link: server.URL + "/missing"},
			{Name: "周建成", Link: server.URL + "/doc"},
		},
	})

	require.NoError(t, service.checkOnce(context.Background(), time.Now()))
	require.Len(t, notifier.calls, 1)
	require.Equal(t, "周建成", notifier.calls[0][0].Doctor)
}

func TestMatchesDoctor(t *testing.T) {
	require.True(t, matchesDoctor("尤香玉", ""))
	require.True(t, matchesDoctor("尤香玉醫師", "尤香玉"))
	require.True(t, matchesDoctor("尤香玉", "尤香玉"))
	require.False(t, matchesDoctor("周建成", "尤香玉"))
}

func TestOpenSlotsMessage(t *testing.T) {
	slots := []vghtpe.Slot{
		{ClinicType: "一般門診", Date: "2025/12/17", WeekDay: "三", TimeSlot: "上午", Doctor: "尤香玉", Room: "301", Url: "https://example.invalid/a"},
		{ClinicType: "一般門診", Date: "2025/12/22", WeekDay: "一", TimeSlot: "夜間", Doctor: "周建成", Room: "305", Url: "https://example.invalid/b"},
		{ClinicType: "特別門診", Date: "2025/12/24", WeekDay: "三", TimeSlot: "上午", Doctor: "尤香玉", Room: "301", Url: "https://example.invalid/a"},
	}

	subject := openSlotsSubject(slots)
	require.Equal(t, "醫師可掛號通知 - 尤香玉, 周建成 (3個時段)", subject)

	now := time.Date(2025, 12, 1, 8, 30, 0, 0, time.UTC)
	body := openSlotsBody(slots, now)
	require.Contains(t, body, "【尤香玉】")
	require.Contains(t, body, "【周建成】")
	require.Contains(t, body, "掛號連結: https://example.invalid/a")
	require.Contains(t, body, "1. 2025/12/17 (三) 上午")
	require.Contains(t, body, "2. 2025/12/24 (三) 上午")
	require.Contains(t, body, "診間: 305 | 診別: 一般門診")
	require.Contains(t, body, "監測時間: 2025-12-01 08:30:00")
}
