// Package nml reads and writes webKnossos NML skeleton annotations.
//
// # Overview
//
// An NML file is an XML document describing neuron tracings: a set of trees
// ("things") made of nodes and edges, a hierarchy of groups that organize the
// trees, document parameters such as the dataset name and voxel scale, and
// per-node branchpoint and comment annotations.
//
// This package provides a typed data model for such documents, a streaming
// parser [Parse], a serializer [Write] and a structural equality [Equal].
// Together they guarantee a lossless round trip:
//
//	n, err := nml.ReadFile("tracing.nml")
//	if err != nil {
//	    return err
//	}
//	err = nml.WriteFile("copy.nml", n) // Equal(n, reparsed copy) holds
//
// # Optional Fields
//
// Many attributes are optional in the format. The model represents each of
// them as a pointer (or, for the volume reference, a pointer to a struct);
// nil means "absent in the file" and is never replaced by a default when
// writing. The only defaults the parser applies are the tree color
// ([DefaultColor]) and the empty tree name. [Ptr] helps building values:
//
//	node := nml.Node{ID: 1, Position: nml.Vec3{10, 20, 30}, Radius: nml.Ptr(2.5)}
//
// # Groups
//
// Groups form a forest of unbounded depth. The parser builds each group only
// after all of its children are complete, so a parsed forest never contains
// shared or cyclic groups. [FlattenGroups] lists a forest in pre-order.
//
// # Errors
//
// Parse fails with one of [*MalformedInputError], [*MissingAttributeError],
// [*InvalidAttributeError] or [*StructuralError]. All of them implement
// errors.Coder from the errors subpackage, so callers can classify failures
// without type switches.
//
// # Immutability
//
// Parsed values are plain data and safe to share between goroutines as long
// as nobody mutates them. Code that derives a new annotation from an existing
// one should use the With* helpers or [NML.Clone] instead of writing through
// shared slices.
package nml
