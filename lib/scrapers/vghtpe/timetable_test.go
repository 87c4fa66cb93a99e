package vghtpe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

const timetablePage = `
<html><body>
<h1>門診時間表 醫師</h1>
<table class="table_list reg_return_table">
  <tr><th>診別</th><th>日期</th><th>星期</th><th>時段</th><th>醫師</th><th>診間</th><th>狀態</th></tr>
  <tr><td>一般門診</td><td>2025/12/17</td><td>三</td><td>上午</td><td>尤香玉</td><td>301</td><td>可掛號</td></tr>
  <tr><td>一般門診</td><td>2025/12/18</td><td>四</td><td>上午</td><td>尤香玉</td><td>301</td><td>已額滿</td></tr>
  <tr><td>一般門診</td><td>2025/12/19</td><td>五</td><td>下午</td><td>代診醫師</td><td>302</td><td>可掛號</td></tr>
  <tr><td>一般門診</td><td>2025/12/20</td><td>六</td><td>上午</td><td>王小明(代診)</td><td>303</td><td>可選擇</td></tr>
  <tr><td>一般門診</td><td>2025/12/22</td><td>一</td><td>夜間</td><td>尤香玉</td><td>301</td><td>可選擇</td></tr>
</table>
<table class="table_list">
  <tr><td>不相關</td><td>資料</td></tr>
</table>
</body></html>`

func TestParseTimetable(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(timetablePage))
	require.NoError(t, err)

	slots := parseTimetable(doc, "https://example.invalid/doc")
	require.Len(t, slots, 2)

	require.Equal(t, "2025/12/17", slots[0].Date)
	require.Equal(t, "上午", slots[0].TimeSlot)
	require.Equal(t, "尤香玉", slots[0].Doctor)
	require.Equal(t, "可掛號", slots[0].Status)
	require.Equal(t, "https://example.invalid/doc", slots[0].Url)

	require.Equal(t, "2025/12/22", slots[1].Date)
	require.Equal(t, "可選擇", slots[1].Status)
}

func TestSlotKeyStableAcrossPolls(t *testing.T) {
	a := Slot{Date: "2025/12/17", TimeSlot: "上午", Doctor: "尤香玉", Room: "301", Status: "可掛號"}
	b := a
	b.Status = "可選擇"
	b.ClinicType = "特別門診"
	require.Equal(t, a.Key(), b.Key())
}

func TestFetchOpenSlots(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/doc", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(timetablePage))
	})
	mux.HandleFunc("/empty", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>maintenance</body></html>"))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client := NewClient()
	slots, err := client.FetchOpenSlots(context.Background(), server.URL+"/doc")
	require.NoError(t, err)
	require.Len(t, slots, 2)

	_, err = client.FetchOpenSlots(context.Background(), server.URL+"/empty")
	require.Error(t, err)
}
