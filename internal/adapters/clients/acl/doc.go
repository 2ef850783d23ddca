// Package acl is the anti-corruption layer between quotekeeper and the remote
// quote endpoint.
//
// The remote speaks a generic "posts" API: GET returns records shaped like
// {userId, id, title, body} and POST accepts {title, body}. Those DTOs never
// leave this package; [RemoteQuoteClient] maps them to [domain.Quote]
// (title is the category, body is the text) and translates every transport
// or status failure into a [domain.NetworkError] via [MapHTTPError].
//
// Shared plumbing:
//
//   - [BaseAdapter]: GET/POST through the instrumented client with error mapping
//   - [DecodeResponse]: generic JSON body decoder
//   - [TranslateSlice]: batch DTO translation
package acl
