// Package ingest turns multipart/form-data bodies into stored files.
//
// Every file part goes through the same steps:
//
//  1. Validate: the part's field name is looked up in a policy Table and its
//     declared Content-Type is checked against the field's allow-list. This
//     happens before any payload byte is read.
//  2. Resolve: the policy's Category selects a base directory and a NameFunc
//     generates a collision-resistant file name.
//  3. Bound: the payload is copied through a Guard that aborts the part as
//     soon as it exceeds the size ceiling.
//  4. Persist: the bytes land in a storage.Writer that is committed on
//     success and aborted otherwise.
//
// # Usage
//
//	p, err := ingest.New(ingest.Config{}, storage.NewDiskBackend())
//	if err != nil {
//	    return err
//	}
//
//	outcome, err := p.ProcessRequest(r)
//	if err != nil {
//	    // malformed body or canceled request; nothing was kept
//	}
//	for _, part := range outcome.Stored() {
//	    fmt.Println(part.Target.Path())
//	}
//
// # Outcomes
//
// Each part ends as stored, rejected (policy said no, nothing written) or
// aborted (size ceiling, storage failure, cancellation; partial data
// discarded). Deciding what a partially successful request means for the
// caller is left to the caller.
package ingest
