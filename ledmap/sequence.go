package ledmap

import "fmt"

// Sequence is the flat list of LED addresses in installation order
type Sequence []int

// Loop is one contiguous slice of a Sequence sent to the controller as a unit
type Loop []int

// BuildSequence concatenates the addresses of every row in input order.
// Rows are neither sorted nor deduplicated.
func BuildSequence(g Geometry, rows []WiringRow) (Sequence, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	seq := make(Sequence, 0, len(rows)*g.LedsPerStrip)
	for i, row := range rows {
		leds, err := TranslateSegment(g, row.Forward, row.LogicalSegment)
		if err != nil {
			return nil, fmt.Errorf("row %d (%s): %w", i+1, row, err)
		}
		seq = append(seq, leds...)
	}
	return seq, nil
}

// PartitionLoops splits the sequence into equal, contiguous loops.
// A sequence whose length is not a multiple of loops is rejected.
func PartitionLoops(seq Sequence, loops int) ([]Loop, error) {
	if loops <= 0 {
		return nil, fmt.Errorf("%w: loop count %d", ErrUnpartitionable, loops)
	}
	if len(seq)%loops != 0 {
		return nil, fmt.Errorf("%w: %d addresses into %d loops", ErrUnpartitionable, len(seq), loops)
	}

	size := len(seq) / loops
	result := make([]Loop, loops)
	for i := range result {
		loop := make(Loop, size)
		copy(loop, seq[i*size:(i+1)*size])
		result[i] = loop
	}
	return result, nil
}

// Join concatenates loops back into a single sequence
func Join(loops []Loop) Sequence {
	total := 0
	for _, loop := range loops {
		total += len(loop)
	}
	seq := make(Sequence, 0, total)
	for _, loop := range loops {
		seq = append(seq, loop...)
	}
	return seq
}

// Map builds the address sequence for rows and partitions it into g.Loops loops
func Map(g Geometry, rows []WiringRow) ([]Loop, error) {
	seq, err := BuildSequence(g, rows)
	if err != nil {
		return nil, err
	}
	return PartitionLoops(seq, g.Loops)
}

// MapGroups builds one loop per group of rows. Loops may differ in length;
// g.Loops is not consulted.
func MapGroups(g Geometry, groups [][]WiringRow) ([]Loop, error) {
	loops := make([]Loop, 0, len(groups))
	for i, rows := range groups {
		seq, err := BuildSequence(g, rows)
		if err != nil {
			return nil, fmt.Errorf("loop %d: %w", i+1, err)
		}
		loops = append(loops, Loop(seq))
	}
	return loops, nil
}
