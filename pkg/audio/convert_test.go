package audio_test

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/doronpers/sonotheia/pkg/audio"
)

func TestPCM16ToFloat64_Empty(t *testing.T) {
	t.Parallel()
	if out := audio.PCM16ToFloat64(nil); len(out) != 0 {
		t.Fatalf("expected 0 samples, got %d", len(out))
	}
}

func TestPCM16ToFloat64_KnownValues(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		value int16
		want  float64
	}{
		{"zero", 0, 0},
		{"half scale", 16384, 0.5},
		{"negative half", -16384, -0.5},
		{"max", 32767, 32767.0 / 32768.0},
		{"min", -32768, -1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pcm := make([]byte, 2)
			binary.LittleEndian.PutUint16(pcm, uint16(tt.value))
			out := audio.PCM16ToFloat64(pcm)
			if len(out) != 1 {
				t.Fatalf("expected 1 sample, got %d", len(out))
			}
			if math.Abs(out[0]-tt.want) > 1e-9 {
				t.Errorf("sample = %f; want %f", out[0], tt.want)
			}
		})
	}
}

func TestPCM16ToFloat64_IgnoresTrailingOddByte(t *testing.T) {
	t.Parallel()
	out := audio.PCM16ToFloat64([]byte{0, 0, 0x42})
	if len(out) != 1 {
		t.Fatalf("expected 1 sample, got %d", len(out))
	}
}

func TestFloat64ToPCM16_Clamps(t *testing.T) {
	t.Parallel()
	pcm := audio.Float64ToPCM16([]float64{2.0, -2.0})
	hi := int16(binary.LittleEndian.Uint16(pcm[0:2]))
	lo := int16(binary.LittleEndian.Uint16(pcm[2:4]))
	if hi != 32767 {
		t.Errorf("over-range sample = %d; want 32767", hi)
	}
	if lo != -32767 {
		t.Errorf("under-range sample = %d; want -32767", lo)
	}
}

func TestDuration(t *testing.T) {
	t.Parallel()
	if got := audio.Duration(make([]float64, 16000), 16000); got != 1.0 {
		t.Errorf("duration = %f; want 1.0", got)
	}
	if got := audio.Duration(make([]float64, 100), 0); got != 0 {
		t.Errorf("duration with zero rate = %f; want 0", got)
	}
}
