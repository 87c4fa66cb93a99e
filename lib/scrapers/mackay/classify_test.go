package mackay

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const successPage = `
<html><body>
<h2>掛號成功</h2>
<p><strong>看診日期：</strong>2025/12/17</p>
<p><strong>看診科別：</strong>小兒科</p>
<p><strong>看診醫師：</strong>丁瑋信</p>
</body></html>`

func TestClassifySuccess(t *testing.T) {
	out := Classify(successPage)
	require.Equal(t, OutcomeSuccess, out.Kind)
	require.Equal(t, "2025/12/17", out.AppointmentDate)
	require.Equal(t, "小兒科", out.Department)
	require.Equal(t, "丁瑋信", out.Doctor)
	require.Equal(t, "掛號成功", out.StatusText)
}

func TestClassifySuccessRegexFallback(t *testing.T) {
	// no emphasis markup at all, only flowing text
	out := Classify(`<html><body>
		您已掛號。看診日期： 2025/12/27 科別： 小兒科 醫師： 丁瑋信
	</body></html>`)
	require.Equal(t, OutcomeSuccess, out.Kind)
	require.Equal(t, "2025/12/27", out.AppointmentDate)
	require.Equal(t, "小兒科", out.Department)
	require.Equal(t, "丁瑋信", out.Doctor)
}

func TestClassifyBareDateFallback(t *testing.T) {
	out := Classify(`<html><body>預約成功 2025-12-17</body></html>`)
	require.Equal(t, OutcomeSuccess, out.Kind)
	require.Equal(t, "2025-12-17", out.AppointmentDate)
}

func TestClassifyFull(t *testing.T) {
	out := Classify(`<html><body><p>該時段已額滿，請改掛其他診次</p></body></html>`)
	require.Equal(t, OutcomeFull, out.Kind)
}

// a "slot full" page that still contains confirmation-like boilerplate
// must classify as Full: the full-slot rule runs first
func TestClassifyFullBeatsSuccess(t *testing.T) {
	out := Classify(`<html><body>
		<p>本診已滿號</p>
		<footer>網路掛號成功後請準時報到</footer>
	</body></html>`)
	require.Equal(t, OutcomeFull, out.Kind)
}

func TestClassifyErrorKeyword(t *testing.T) {
	out := Classify(`<html><body>驗證碼錯誤，請重新輸入</body></html>`)
	require.Equal(t, OutcomeError, out.Kind)
	require.Equal(t, "驗證碼錯誤", out.Reason)
}

const printBlockPage = `
<html><body>
<div id="myprint">
  <ul>
    <li>看診日期：2026/01/03</li>
    <li>看診科別：小兒科</li>
    <li>看診醫師：丁瑋信</li>
    <li>掛號結果：%s</li>
  </ul>
</div>
</body></html>`

func TestClassifyPrintBlockSuccess(t *testing.T) {
	out := Classify(strings.Replace(printBlockPage, "%s", "完成，號碼 12", 1))
	// "完成" alone matches no keyword rule and no status rule, falls to Unknown
	require.Equal(t, OutcomeUnknown, out.Kind)

	// "已掛號" is also a page-wide success keyword, so rule 2 fires
	// before the structured block is ever consulted
	out = Classify(strings.Replace(printBlockPage, "%s", "已掛號，號碼 12", 1))
	require.Equal(t, OutcomeSuccess, out.Kind)
	require.Equal(t, "2026/01/03", out.AppointmentDate)
	require.Equal(t, "小兒科", out.Department)
	require.Equal(t, "丁瑋信", out.Doctor)
}

// a status phrase that matches no page-wide keyword but still reads
// as a success is resolved by the structured block itself
func TestClassifyPrintBlockStatusOnly(t *testing.T) {
	out := Classify(strings.Replace(printBlockPage, "%s", "預約已成功", 1))
	require.Equal(t, OutcomeSuccess, out.Kind)
	require.Equal(t, "2026/01/03", out.AppointmentDate)
	require.Equal(t, "預約已成功", out.StatusText)
}

func TestClassifyPrintBlockFull(t *testing.T) {
	// full keywords inside the block are caught by the page-wide rule
	// already; either path must end in Full
	out := Classify(strings.Replace(printBlockPage, "%s", "已掛滿", 1))
	require.Equal(t, OutcomeFull, out.Kind)
}

func TestClassifyResultTable(t *testing.T) {
	out := Classify(`<html><body>
	<table>
	  <tr><td>看診日期</td><td>2025/12/17</td></tr>
	  <tr><td>看診科別</td><td>小兒科</td></tr>
	  <tr><td>看診醫師</td><td>丁瑋信</td></tr>
	  <tr><td>掛號結果</td><td>掛號成功</td></tr>
	</table>
	</body></html>`)
	// the success keyword inside the table text already matches rule 2
	require.Equal(t, OutcomeSuccess, out.Kind)

	out = Classify(`<html><body>
	<table>
	  <tr><td>看診日期</td><td>2025/12/17</td></tr>
	  <tr><td>掛號結果</td><td>完成</td></tr>
	</table>
	</body></html>`)
	// "完成" matches no status rule, the table rule falls through
	require.Equal(t, OutcomeUnknown, out.Kind)
}

func TestClassifyAlertMarkup(t *testing.T) {
	out := Classify(`<html><body>
	<div class="error">欄位缺漏</div>
	<span class="warning">請重新送出</span>
	</body></html>`)
	require.Equal(t, OutcomeError, out.Kind)
	require.Contains(t, out.Reason, "欄位缺漏")
	require.Contains(t, out.Reason, "請重新送出")
}

func TestClassifyUnknown(t *testing.T) {
	out := Classify(`<html><body>系統維護中</body></html>`)
	require.Equal(t, OutcomeUnknown, out.Kind)
	require.Contains(t, out.RawExcerpt, "系統維護中")
}

func TestClassifyUnknownExcerptBounded(t *testing.T) {
	body := strings.Repeat("很長的頁面內容 ", 500)
	out := Classify("<html><body>" + body + "</body></html>")
	require.Equal(t, OutcomeUnknown, out.Kind)
	require.LessOrEqual(t, len([]rune(out.RawExcerpt)), 500)
}

func TestClassifyGarbageNeverPanics(t *testing.T) {
	for _, input := range []string{
		"",
		"\x00\x01\x02",
		"<<<<>>>> not html at all",
		strings.Repeat("<div>", 10000),
	} {
		out := Classify(input)
		require.Equal(t, OutcomeUnknown, out.Kind)
	}
}
