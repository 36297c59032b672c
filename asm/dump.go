/*
Copyright (C) 2026  Carl-Philip Hänsch

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU General Public License as published by
	the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU General Public License for more details.

	You should have received a copy of the GNU General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
package asm

import (
	"encoding/binary"
	"io"
	"os"
	"strings"

	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

// Code blob dumps for offline disassembly. The on-disk layout is a small
// header (magic, base address, code length) followed by the raw bytes and
// the relocation records; the whole file is lz4-framed. Reading also
// accepts .xz files so externally recompressed dumps stay loadable.

const dumpMagic = uint32(0x786A6974) // "tijx"

// DumpTo writes the buffer as a compressed code dump.
func (b *CodeBuffer) DumpTo(w io.Writer) error {
	zw := lz4.NewWriter(w)
	if err := b.writeDump(zw); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

// DumpFile writes the dump to path; the file is named by the buffer's UUID
// when path is a directory.
func (b *CodeBuffer) DumpFile(path string) error {
	if st, err := os.Stat(path); err == nil && st.IsDir() {
		path = path + "/" + b.ID.String() + ".code.lz4"
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return b.DumpTo(f)
}

func (b *CodeBuffer) writeDump(w io.Writer) error {
	hdr := make([]byte, 16)
	binary.LittleEndian.PutUint32(hdr[0:], dumpMagic)
	binary.LittleEndian.PutUint64(hdr[4:], b.Base)
	binary.LittleEndian.PutUint32(hdr[12:], uint32(len(b.bytes)))
	if _, err := w.Write(hdr); err != nil {
		return err
	}
	if _, err := w.Write(b.bytes); err != nil {
		return err
	}
	var relocErr error
	b.Relocations(func(r Relocation) bool {
		rec := make([]byte, 13)
		binary.LittleEndian.PutUint32(rec[0:], uint32(r.Offset))
		rec[4] = byte(r.Kind)
		binary.LittleEndian.PutUint64(rec[5:], r.Target)
		_, relocErr = w.Write(rec)
		return relocErr == nil
	})
	return relocErr
}

// LoadDump reads a dump written by DumpTo. Files ending in .xz decompress
// through the xz reader instead of lz4.
func LoadDump(path string) (*CodeBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var r io.Reader
	if strings.HasSuffix(path, ".xz") {
		r, err = xz.NewReader(f)
		if err != nil {
			return nil, err
		}
	} else {
		r = lz4.NewReader(f)
	}
	return readDump(r)
}

func readDump(r io.Reader) (*CodeBuffer, error) {
	hdr := make([]byte, 16)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, err
	}
	if binary.LittleEndian.Uint32(hdr[0:]) != dumpMagic {
		return nil, io.ErrUnexpectedEOF
	}
	b := NewCodeBuffer(binary.LittleEndian.Uint64(hdr[4:]))
	b.bytes = make([]byte, binary.LittleEndian.Uint32(hdr[12:]))
	if _, err := io.ReadFull(r, b.bytes); err != nil {
		return nil, err
	}
	rec := make([]byte, 13)
	for {
		if _, err := io.ReadFull(r, rec); err != nil {
			if err == io.EOF {
				return b, nil
			}
			return nil, err
		}
		b.relocs.ReplaceOrInsert(Relocation{
			Offset: int(binary.LittleEndian.Uint32(rec[0:])),
			Kind:   RelocKind(rec[4]),
			Target: binary.LittleEndian.Uint64(rec[5:]),
		})
	}
}
