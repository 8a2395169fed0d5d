// Package config loads formstore settings.
//
// Settings come from three sources, highest precedence first:
//
//  1. Environment variables prefixed with FORMSTORE_, with dots in the key
//     replaced by underscores (storage.s3.bucket -> FORMSTORE_STORAGE_S3_BUCKET).
//     A .env file in the working directory is loaded into the environment
//     first, without overriding variables that are already set.
//  2. A YAML or JSON file given with --config.
//  3. Built-in defaults.
//
// # Configuration File Structure
//
//	server:
//	  addr: ":8080"
//	  max_request_bytes: 67108864
//	  read_timeout: 60s
//	  shutdown_timeout: 15s
//	log:
//	  level: info
//	  format: text
//	ingest:
//	  max_part_bytes: 5242880
//	  max_field_bytes: 1048576
//	storage:
//	  backend: disk
//	  dirs:
//	    profile_image: storage/images/profile
//	    team_image: storage/images/teams
//	    video: storage/videos
//	  s3:
//	    bucket: uploads
//	    region: eu-central-1
//	policies:
//	  - field: avatar
//	    category: profile_image
//	    allowed_types: [image/png, image/webp]
//
// An empty directory disables its category: parts routed there are
// rejected as UnsupportedDestination. An empty policies list selects the
// built-in profile, image and video fields.
package config
