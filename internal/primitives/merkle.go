package primitives

// Merkle trees hash leaves pairwise up to a single root. When a layer
// has an odd number of nodes its last element is duplicated before
// pairing, matching the convention used by most UTXO-chain merkle
// trees this design is descended from.

// MerkleRoot computes the Merkle root of leaves. The root of an empty
// leaf set is the zero hash.
func MerkleRoot(leaves []Hash) Hash {
	if len(leaves) == 0 {
		return ZeroHash
	}
	layer := append([]Hash(nil), leaves...)
	for len(layer) > 1 {
		layer = nextLayer(layer)
	}
	return layer[0]
}

func nextLayer(layer []Hash) []Hash {
	if len(layer)%2 == 1 {
		layer = append(layer, layer[len(layer)-1])
	}
	next := make([]Hash, len(layer)/2)
	for i := 0; i < len(next); i++ {
		next[i] = hashPair(layer[2*i], layer[2*i+1])
	}
	return next
}

func hashPair(left, right Hash) Hash {
	buf := make([]byte, 0, 2*Size)
	buf = append(buf, left[:]...)
	buf = append(buf, right[:]...)
	return Sum256(buf)
}

// MerkleStep is one level of a Merkle proof: the sibling hash at that
// layer, and whether the sibling sits to the left of the node being
// proven (so the verifier knows hash order when recombining).
type MerkleStep struct {
	Sibling     Hash
	SiblingLeft bool
}

// MerkleProof returns the sibling path from leaf index i up to the
// root, for a tree built over n leaves via MerkleRoot. It panics if i
// is out of range; callers are expected to validate i < n first.
func MerkleProof(leaves []Hash, i int) []MerkleStep {
	if i < 0 || i >= len(leaves) {
		panic("primitives: merkle proof index out of range")
	}
	layer := append([]Hash(nil), leaves...)
	idx := i
	var proof []MerkleStep
	for len(layer) > 1 {
		if len(layer)%2 == 1 {
			layer = append(layer, layer[len(layer)-1])
		}
		var step MerkleStep
		if idx%2 == 0 {
			step = MerkleStep{Sibling: layer[idx+1], SiblingLeft: false}
		} else {
			step = MerkleStep{Sibling: layer[idx-1], SiblingLeft: true}
		}
		proof = append(proof, step)
		layer = nextLayer(layer)
		idx /= 2
	}
	return proof
}

// MerkleVerify reconstructs the path from leaf using proof and checks
// it arrives at root. i and n are the leaf's original index and the
// original leaf count; they are accepted for interface symmetry with
// the proof-generation side but the reconstruction itself only needs
// the per-step SiblingLeft flags recorded in proof.
func MerkleVerify(root, leaf Hash, proof []MerkleStep, i, n int) bool {
	if n == 0 {
		return root.IsZero() && len(proof) == 0
	}
	if i < 0 || i >= n {
		return false
	}
	cur := leaf
	for _, step := range proof {
		if step.SiblingLeft {
			cur = hashPair(step.Sibling, cur)
		} else {
			cur = hashPair(cur, step.Sibling)
		}
	}
	return cur == root
}
