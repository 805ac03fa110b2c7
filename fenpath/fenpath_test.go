package fenpath

import "testing"

func TestToFilename(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		want string
	}{
		{
			name: "starting position",
			fen:  "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
			want: "rnbqkbnr_pppppppp_8_8_8_8_PPPPPPPP_RNBQKBNR-w-KQkq-dash-0-1",
		},
		{
			name: "en passant square set",
			fen:  "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1",
			want: "rnbqkbnr_pppppppp_8_8_4P3_8_PPPP1PPP_RNBQKBNR-b-KQkq-e3-0-1",
		},
		{
			name: "no castling rights",
			fen:  "8/8/8/4k3/4K3/8/8/8 w - - 40 80",
			want: "8_8_8_4k3_4K3_8_8_8-w-dash-dash-40-80",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToFilename(tt.fen); got != tt.want {
				t.Errorf("ToFilename(%q) = %q, want %q", tt.fen, got, tt.want)
			}
		})
	}
}

func TestFenpathRoundTrip(t *testing.T) {
	// WHAT: ToFilename(ToFEN(ToFilename(fen))) == ToFilename(fen) for every
	// shape of legal FEN.
	// WHY: The codec links video source files, relationship keys and static
	// artifact paths; any lossiness silently severs openings from their data.
	fens := []string{
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		"rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1",
		"r1bqkbnr/pppp1ppp/2n5/4p3/2B1P3/5N2/PPPP1PPP/RNBQK2R b KQkq - 3 3",
		"8/8/8/4k3/4K3/8/8/8 w - - 40 80",
		"rnbq1rk1/ppp1bppp/4pn2/3p4/2PP4/5NP1/PP2PPBP/RNBQ1RK1 w - - 4 6",
		"4k3/8/8/8/8/8/8/4K2R w K - 0 1",
	}
	for _, fen := range fens {
		name := ToFilename(fen)
		back := ToFEN(name)
		if back != fen {
			t.Errorf("ToFEN(ToFilename(%q)) = %q", fen, back)
		}
		if again := ToFilename(back); again != name {
			t.Errorf("round trip unstable for %q: %q != %q", fen, again, name)
		}
	}
}
