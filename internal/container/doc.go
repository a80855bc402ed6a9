// Package container reads a TorchScript archive into a module tree.
//
// Two layouts are supported: archives whose root object graph is pickled in
// data.pkl, and older archives describing modules and tensors in model.json.
// Entry names may carry a common directory prefix, located through the
// version entry.
//
// Archive entries:
//   - version: format version, a JSON number or string
//   - data.pkl, data/<key>: pickled root module and its storages
//   - constants.pkl, constants/<key>: values behind CONSTANTS.cN, loaded on
//     first reference
//   - model.json, tensors/<key>: module tree and tensor table of old exports
//   - code/...: module source, parsed only when a Parser is configured
//
// Missing or malformed required entries fail with a *FormatError.
package container
