package util

import (
	"strconv"
	"strings"
)

var (
	koreanDigits    = []string{"", "일", "이", "삼", "사", "오", "육", "칠", "팔", "구"}
	koreanPositions = []string{"", "십", "백", "천"}
	koreanBigUnits  = []string{"", "만", "억", "조", "경"}
)

// AmountToKorean 금액을 한글로 표기 (청구서 "금 일백오십만원정" 등에 사용)
//
// 0 은 "영", 음수는 "마이너스 " 접두어. 십의 자리 1 만 생략한다 (10 -> 십, 100 -> 일백).
func AmountToKorean(amount int64) string {
	if amount == 0 {
		return "영"
	}

	n := uint64(amount)
	if amount < 0 {
		n = uint64(-amount)
	}

	// 4자리씩 그룹으로 나누기 (낮은 자리부터)
	var groups []int
	for n > 0 {
		groups = append(groups, int(n%10000))
		n /= 10000
	}

	var b strings.Builder
	if amount < 0 {
		b.WriteString("마이너스 ")
	}
	for i := len(groups) - 1; i >= 0; i-- {
		if groups[i] == 0 {
			continue
		}
		b.WriteString(koreanGroup(groups[i]))
		b.WriteString(koreanBigUnits[i])
	}
	return b.String()
}

func koreanGroup(num int) string {
	digits := strconv.Itoa(num)
	var b strings.Builder
	for i := 0; i < len(digits); i++ {
		d := int(digits[i] - '0')
		pos := len(digits) - 1 - i
		if d == 0 {
			continue
		}
		if d == 1 && pos == 1 {
			b.WriteString(koreanPositions[pos])
			continue
		}
		b.WriteString(koreanDigits[d])
		b.WriteString(koreanPositions[pos])
	}
	return b.String()
}
