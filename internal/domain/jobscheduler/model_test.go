package jobscheduler

import "testing"

func TestNames(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name        string
		wantKind    Kind
		wantSubject string
	}{
		{name: TriggerName("20250513WOLG0"), wantKind: KindTrigger, wantSubject: "20250513WOLG0"},
		{name: PollName("20250513WOLG0"), wantKind: KindPoll, wantSubject: "20250513WOLG0"},
		{name: CronName("daily-crawl"), wantKind: KindCron, wantSubject: "daily-crawl"},
	}

	for _, tc := range cases {
		kind, subject, ok := ParseName(tc.name)
		if !ok {
			t.Fatalf("expected %q to parse", tc.name)
		}
		if kind != tc.wantKind || subject != tc.wantSubject {
			t.Fatalf("unexpected parse of %q: got=%s/%s want=%s/%s", tc.name, kind, subject, tc.wantKind, tc.wantSubject)
		}
	}

	for _, raw := range []string{"", "poll:", "unknown:20250513WOLG0", "20250513WOLG0"} {
		if _, _, ok := ParseName(raw); ok {
			t.Fatalf("expected %q to be rejected", raw)
		}
	}
}
