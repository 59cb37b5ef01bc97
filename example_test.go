package ustream_test

import (
	"fmt"

	"github.com/BaSui01/ustream"
)

func ExampleFromBytes() {
	s, _ := ustream.FromBytes([]byte("0123456789"), nil)
	defer s.Dispose()

	buf := make([]byte, 4)
	for {
		n, err := s.Read(buf)
		if n > 0 {
			fmt.Printf("%s\n", buf[:n])
		}
		if err != nil {
			break
		}
	}
	// Output:
	// 0123
	// 4567
	// 89
}

func ExampleConcat() {
	header, _ := ustream.FromBytes([]byte("header|"), nil)
	body, _ := ustream.FromBytes([]byte("body"), nil)
	defer header.Dispose()
	defer body.Dispose()

	combined, _ := ustream.Concat(header, body, nil)
	defer combined.Dispose()

	remaining, _ := combined.RemainingSize()
	fmt.Println(remaining)

	buf := make([]byte, 16)
	for {
		n, err := combined.Read(buf)
		if n > 0 {
			fmt.Printf("%s\n", buf[:n])
		}
		if err != nil {
			break
		}
	}
	// Output:
	// 11
	// header|
	// body
}

func ExampleInstance_Clone() {
	s, _ := ustream.FromBytes([]byte("shared"), nil)
	defer s.Dispose()

	clone, _ := s.Clone(0)
	defer clone.Dispose()

	buf := make([]byte, 6)
	n, _ := s.Read(buf)
	fmt.Printf("original: %s\n", buf[:n])

	n, _ = clone.Read(buf)
	fmt.Printf("clone: %s\n", buf[:n])
	// Output:
	// original: shared
	// clone: shared
}
