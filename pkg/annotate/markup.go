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

package annotate

// HeadMarkup is appended to the end of every document head. It loads the
// runtime scripts injected at the archive root.
const HeadMarkup = `
<!--custom code 1-->
<script type="text/javascript" src="LLWebServerExtended.js"></script>
<script type='text/javascript' src='../js/base.js'></script>
<link rel='stylesheet' type='text/css' href='../style/common.css'>
<!--custom code 2-->
<script type="text/javascript" src="ew-log-viewer.js"></script>
<script type="text/javascript" src="envelope-cartesian.js"></script>
`

// BodyMarkup is appended to the end of every document body.
const BodyMarkup = `
<!--custom code 3-->
<script type='text/javascript'>
    LLWebServer.AutoRefreshStart(1000);
    showLoginStatus();
    localStorage.setItem("showNeutralNavbar", true);
</script>
<script>
    document.addEventListener('DOMContentLoaded', init);
</script>
<script
      defer=""
      src="scriptcustom.js"
></script>
`

// Doctype prefixes every rendered document.
const Doctype = "<!DOCTYPE html>\n"

// MarkerAttr marks an element for binding. Its value is the data point
// address.
const MarkerAttr = "nv"

const (
	attrPar     = "data-llweb-par"
	attrRefresh = "data-llweb-refresh"
	attrFormat  = "data-llweb-format"
)

// BlockedLinkHosts are matched as substrings of link hrefs. Matching links
// are dropped so the package works without internet access.
var BlockedLinkHosts = []string{"fonts.googleapis.com", "unpkg.com"}

// pathAttrs are rewritten with the public asset rule wherever they appear.
var pathAttrs = []string{"src", "href", "background", "data-background", "style"}
