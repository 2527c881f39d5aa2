// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

/*
Package operation runs one webbind transformation over an uploaded site.

🎯 Purpose:
  - Turns a zipped static site and its data point lists into a package the
    LLWeb runtime can serve
  - Reports what happened to every entry so callers can show a change feed

🔄 Flow:
 1. Parse every csv source and index the records by address
 2. Open the archive and drop the 404 pages
 3. Inject the four runtime scripts at the root
 4. Move public/ to img/
 5. Rewrite asset references in stylesheets
 6. Annotate every page
 7. Apply configured extra replacements
 8. Serialize, digest and return

⚡ Failure policy:
Only a missing archive, an unreadable archive or a strict csv failure stop a
run. Anything that goes wrong with a single entry leaves that entry as it was
uploaded and is counted in Stats.EntryErrors.
*/
package operation
