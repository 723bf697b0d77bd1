// Package services implements clients for the remote HTTP APIs used by olp.
//
// # Firestore
//
// [FirestoreStore] keeps progress documents in a Firestore collection through the REST API.
// It satisfies the same Read/Merge contract as the SQLite and Postgres stores:
//
//   - Read is a GET on documents/{collection}/{learner}_{course}; 404 maps to [shared.ErrNotFound]
//   - Merge is a PATCH with an update mask over the progress fields only, so unrelated fields survive
//
// Merge first compares versions, then conditions the PATCH on the updateTime it just read.
// Either check failing yields [shared.ErrStaleWrite].
//
// Requests are authenticated with an [oauth2.TokenSource] and throttled by a [rate.Limiter].
//
// # YouTube
//
// [OEmbedService] implements [VideoLookup] over the public oEmbed endpoint, resolving title,
// channel and thumbnail for authoring.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrUnauthorized] : 401/403 from the API
//   - [shared.ErrServiceUnavailable] : 429 and 5xx
//   - [shared.ErrVideoNotFound] : private, removed or unknown video
//   - [shared.ErrAPIRequest] : any other failed request
package services
