// Package storage persists accepted upload parts.
//
// A Backend hands out a Writer per part. The writer collects the payload and
// only publishes it on Commit, so readers never observe a half-written file:
//
//	w, err := backend.Create(ctx, storage.Target{Dir: "storage/images/profile", Name: name}, "image/png")
//	if err != nil {
//	    return err
//	}
//	if _, err := io.Copy(w, body); err != nil {
//	    w.Abort()
//	    return err
//	}
//	return w.Commit()
//
// # Backends
//
//   - DiskBackend writes to a hidden temporary file next to the destination
//     and renames it on Commit.
//   - S3Backend and MinIOBackend buffer the payload (bounded by the pipeline's
//     part ceiling) and upload it with a single PUT on Commit.
package storage
