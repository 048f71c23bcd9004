package common

// TentativeIDPrefix marks record identifiers generated locally before the
// remote API has confirmed the record. The server never issues identifiers
// with this prefix, so the two id spaces cannot collide.
const TentativeIDPrefix = "local_"
