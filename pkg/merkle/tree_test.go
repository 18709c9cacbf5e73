package merkle

import (
	"bytes"
	"errors"
	"testing"
)

func leaves(n int) [][]byte {
	out := make([][]byte, n)
	for i := 0; i < n; i++ {
		out[i] = HashData([]byte{byte(i)})
	}
	return out
}

func TestBuildTree_EmptyLeaves(t *testing.T) {
	_, err := BuildTree(nil)
	if !errors.Is(err, ErrEmptyTree) {
		t.Fatalf("expected ErrEmptyTree, got %v", err)
	}
}

func TestBuildTree_InvalidLeafSize(t *testing.T) {
	_, err := BuildTree([][]byte{{1, 2, 3}})
	if !errors.Is(err, ErrInvalidLeafHash) {
		t.Fatalf("expected ErrInvalidLeafHash, got %v", err)
	}
}

func TestBuildTree_Deterministic(t *testing.T) {
	data := leaves(5)

	tree1, err := BuildTree(data)
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	tree2, err := BuildTree(data)
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	if !bytes.Equal(tree1.Root(), tree2.Root()) {
		t.Fatal("expected identical leaves to produce identical roots")
	}
}

func TestBuildTree_SingleLeaf(t *testing.T) {
	leaf := HashData([]byte("only"))
	tree, err := BuildTree([][]byte{leaf})
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	if !bytes.Equal(tree.Root(), leaf) {
		t.Fatalf("expected single-leaf tree's root to equal the leaf itself")
	}
}

func TestBuildTree_OddLeafCountDuplicatesLast(t *testing.T) {
	// Three leaves: the odd one out must be paired with itself rather than
	// causing an index error or being dropped.
	tree, err := BuildTree(leaves(3))
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	if len(tree.Root()) != 32 {
		t.Fatalf("expected a 32-byte root, got %d bytes", len(tree.Root()))
	}
}

func TestBuildTree_DetectsChangedLeaf(t *testing.T) {
	original := leaves(4)
	tampered := make([][]byte, len(original))
	copy(tampered, original)
	tampered[2] = HashData([]byte("tampered"))

	tree1, err := BuildTree(original)
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	tree2, err := BuildTree(tampered)
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	if bytes.Equal(tree1.Root(), tree2.Root()) {
		t.Fatal("expected a single changed leaf to change the root, as pkg/checkpoint relies on for corruption detection")
	}
}

func TestHashData_Deterministic(t *testing.T) {
	a := HashData([]byte("header-bytes"))
	b := HashData([]byte("header-bytes"))
	if !bytes.Equal(a, b) {
		t.Fatal("expected HashData to be deterministic")
	}
	if len(a) != 32 {
		t.Fatalf("expected a 32-byte digest, got %d bytes", len(a))
	}
}
