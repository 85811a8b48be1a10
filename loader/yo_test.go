package loader

import (
	"strings"
	"testing"
)

func TestLoadBasicProgram(t *testing.T) {
	src := strings.Join([]string{
		"                            | # simple irmovq/halt program",
		"0x000: 30f30100000000000000 | irmovq $1, %rbx",
		"0x00a: 00                   | halt",
		"",
	}, "\n")

	prog, err := parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if len(prog.Image) != 11 {
		t.Fatalf("image len = %d, want 11", len(prog.Image))
	}
	if prog.Image[0] != 0x30 || prog.Image[10] != 0x00 {
		t.Errorf("image = %x, want opcode bytes preserved", prog.Image)
	}
}

func TestLoadSkipsCommentOnlyLines(t *testing.T) {
	src := "                            | .pos 0\n0x000: 00 | halt\n"

	prog, err := parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(prog.Image) != 1 || prog.Image[0] != 0x00 {
		t.Errorf("image = %x, want [0x00]", prog.Image)
	}
}

func TestLoadRejectsOddHexField(t *testing.T) {
	_, err := parse(strings.NewReader("0x000: 0 | truncated\n"))
	if err == nil {
		t.Fatal("expected an error for an odd-length byte field")
	}
}
