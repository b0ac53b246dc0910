package pcireset

import (
	"encoding/binary"
	"errors"
	"testing"
)

func TestResetDeviceIoctlCode(t *testing.T) {
	if resetDeviceIoctl != 0xFA06 {
		t.Errorf("resetDeviceIoctl = %#x, expected 0xfa06", resetDeviceIoctl)
	}
}

func TestEncodeResetRequest(t *testing.T) {
	tests := []struct {
		cmd   ResetCommand
		flags uint32
	}{
		{CommandRestoreState, 0},
		{CommandResetPCIeLink, 1},
		{CommandConfigWrite, 2},
	}

	for _, tt := range tests {
		t.Run(tt.cmd.String(), func(t *testing.T) {
			buf := EncodeResetRequest(tt.cmd)
			if len(buf) != 16 {
				t.Fatalf("len(buf) = %d, expected 16", len(buf))
			}

			want := []uint32{8, tt.flags, 0, 0}
			for i, w := range want {
				got := binary.LittleEndian.Uint32(buf[i*4:])
				if got != w {
					t.Errorf("field %d = %d, expected %d", i, got, w)
				}
			}
		})
	}
}

func TestDecodeResetResponse(t *testing.T) {
	tests := []struct {
		name     string
		response []uint32
		wantOK   bool
	}{
		{"untouched request", []uint32{8, 2, 0, 0}, true},
		{"driver wrote output size", []uint32{8, 2, 8, 0}, true},
		{"driver reported failure", []uint32{8, 2, 8, 1}, false},
		{"negative errno result", []uint32{8, 0, 8, 0xFFFFFFEA}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := EncodeResetRequest(ResetCommand(tt.response[1]))
			for i, v := range tt.response {
				binary.LittleEndian.PutUint32(buf[i*4:], v)
			}

			resp, err := DecodeResetResponse(buf)
			if err != nil {
				t.Fatalf("DecodeResetResponse() error = %v", err)
			}
			if resp.OK() != tt.wantOK {
				t.Errorf("OK() = %v, expected %v (result %#x)", resp.OK(), tt.wantOK, resp.Result)
			}
			if resp.OutputSize != tt.response[2] {
				t.Errorf("OutputSize = %d, expected %d", resp.OutputSize, tt.response[2])
			}
		})
	}
}

func TestDecodeResetResponseResultOffset(t *testing.T) {
	for offset := 0; offset < 16; offset += 4 {
		buf := make([]byte, 16)
		binary.LittleEndian.PutUint32(buf[offset:], 0xDEADBEEF)

		resp, err := DecodeResetResponse(buf)
		if err != nil {
			t.Fatalf("DecodeResetResponse() error = %v", err)
		}
		if got := resp.Result == 0xDEADBEEF; got != (offset == 12) {
			t.Errorf("value at offset %d decoded as result = %v", offset, got)
		}
		if got := resp.OutputSize == 0xDEADBEEF; got != (offset == 8) {
			t.Errorf("value at offset %d decoded as output size = %v", offset, got)
		}
	}
}

func TestDecodeResetResponseShortBuffer(t *testing.T) {
	_, err := DecodeResetResponse(make([]byte, 12))
	if !errors.Is(err, ErrShortBuffer) {
		t.Errorf("expected ErrShortBuffer, got %v", err)
	}
}

func TestParseResetCommand(t *testing.T) {
	tests := []struct {
		input   string
		want    ResetCommand
		wantErr bool
	}{
		{"restore-state", CommandRestoreState, false},
		{"restore", CommandRestoreState, false},
		{"Reset-Link", CommandResetPCIeLink, false},
		{"config-write", CommandConfigWrite, false},
		{" config-write ", CommandConfigWrite, false},
		{"hot-reset", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseResetCommand(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseResetCommand(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownCommand) {
					t.Errorf("expected ErrUnknownCommand, got %v", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("ParseResetCommand(%q) = %v, expected %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestResetCommandStringRoundTrip(t *testing.T) {
	for _, cmd := range []ResetCommand{CommandRestoreState, CommandResetPCIeLink, CommandConfigWrite} {
		parsed, err := ParseResetCommand(cmd.String())
		if err != nil {
			t.Fatalf("ParseResetCommand(%q) error = %v", cmd.String(), err)
		}
		if parsed != cmd {
			t.Errorf("round trip of %v gave %v", cmd, parsed)
		}
	}

	if got := ResetCommand(9).String(); got != "command(9)" {
		t.Errorf("String() = %q, expected %q", got, "command(9)")
	}
}
