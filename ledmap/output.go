package ledmap

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
)

// WriteLoops writes one line per loop: addresses separated by ", " with a
// trailing comma, ready to paste into a C array initializer.
func WriteLoops(w io.Writer, loops []Loop) error {
	bw := bufio.NewWriter(w)
	buf := make([]byte, 0, 16)
	for _, loop := range loops {
		for i, addr := range loop {
			if i > 0 {
				bw.WriteByte(' ')
			}
			buf = strconv.AppendInt(buf[:0], int64(addr), 10)
			bw.Write(buf)
			bw.WriteByte(',')
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// SaveLoops writes loops to the named file, replacing its contents
func SaveLoops(filename string, loops []Loop) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := WriteLoops(file, loops); err != nil {
		file.Close()
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return file.Close()
}
